package chain

// Version constants for the runtime and trace format.
const (
	// TraceVersion is the execution trace schema version.
	TraceVersion = "1"

	// EngineVersion is the chainsim runtime version.
	EngineVersion = "0.1.0"
)
