package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/contracts"
)

// Scenario defines a run of transactions against a fresh blockchain.
type Scenario struct {
	// Name uniquely identifies this scenario. Transaction ids and golden
	// file names derive from it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// TimeMs is the blockchain time before the first transaction.
	TimeMs int64 `yaml:"time_ms,omitempty" json:"time_ms,omitempty"`

	// Accounts are plain accounts created before the contracts.
	Accounts []string `yaml:"accounts,omitempty" json:"accounts,omitempty"`

	// Contracts are deployed in order after the accounts.
	Contracts []ContractSpec `yaml:"contracts" json:"contracts"`

	// Transactions are applied in order.
	Transactions []TransactionStep `yaml:"transactions" json:"transactions"`

	// Assertions validate the final trace, console and tables.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`

	// Dir is the directory the scenario was loaded from.
	Dir string `yaml:"-" json:"-"`
}

// ContractSpec deploys a contract account.
type ContractSpec struct {
	// Name is the account name.
	Name string `yaml:"name" json:"name"`

	// Builtin names a built-in contract (see contracts.BuiltinNames).
	Builtin string `yaml:"builtin,omitempty" json:"builtin,omitempty"`

	// Wasm is the path to a compiled contract.
	Wasm string `yaml:"wasm,omitempty" json:"wasm,omitempty"`

	// SendsInline grants the account's code its eosio.code permission.
	// Built-ins that send inline actions get it regardless.
	SendsInline bool `yaml:"sends_inline,omitempty" json:"sends_inline,omitempty"`
}

// TransactionStep is one transaction and what it should produce.
type TransactionStep struct {
	// AdvanceMs moves the chain clock forward before the transaction.
	AdvanceMs int64 `yaml:"advance_ms,omitempty" json:"advance_ms,omitempty"`

	Actions []ActionStep `yaml:"actions" json:"actions"`

	// ExpectError, if set, requires the transaction to fail with an error
	// containing this text.
	ExpectError string `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`

	// ExpectConsole, if set, requires the transaction's console to equal it.
	ExpectConsole *string `yaml:"expect_console,omitempty" json:"expect_console,omitempty"`
}

// ActionStep is one top-level action.
type ActionStep struct {
	Account string `yaml:"account" json:"account"`
	Name    string `yaml:"name" json:"name"`

	// Authorization lists "actor@permission" levels.
	Authorization []string `yaml:"authorization,omitempty" json:"authorization,omitempty"`

	// Data lists typed fields, see EncodeData.
	Data []string `yaml:"data,omitempty" json:"data,omitempty"`

	// DataHex is the packed payload.
	DataHex string `yaml:"data_hex,omitempty" json:"data_hex,omitempty"`
}

// Assertion validates the final trace, console or tables.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type" json:"type"`

	// Actions is the expected label order (trace_order).
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`

	// Console is the expected console (console_equals).
	Console *string `yaml:"console,omitempty" json:"console,omitempty"`

	// Code, Scope and Table locate a table (row_exists, row_absent,
	// table_size).
	Code  string `yaml:"code,omitempty" json:"code,omitempty"`
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty"`
	Table string `yaml:"table,omitempty" json:"table,omitempty"`

	// PrimaryKey is the row's key, see ParseKey (row_exists, row_absent).
	PrimaryKey string `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`

	// ValueHex optionally pins the row's value (row_exists).
	ValueHex string `yaml:"value_hex,omitempty" json:"value_hex,omitempty"`

	// Size is the expected row count (table_size).
	Size *int `yaml:"size,omitempty" json:"size,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder    = "trace_order"
	AssertConsoleEquals = "console_equals"
	AssertRowExists     = "row_exists"
	AssertRowAbsent     = "row_absent"
	AssertTableSize     = "table_size"
)

// LoadScenario reads and parses a scenario file. The format follows the
// extension: .cue files are evaluated with CUE, anything else is YAML.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (YAML only) or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		if err := decodeCUE(data, path, &scenario); err != nil {
			return nil, fmt.Errorf("failed to evaluate CUE: %w", err)
		}
	} else {
		// Strict field validation catches typos like "assertion:" vs "assertions:"
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&scenario); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	scenario.Dir = filepath.Dir(path)
	scenario.resolvePaths()

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolvePaths makes relative wasm paths relative to the scenario's
// directory.
func (s *Scenario) resolvePaths() {
	if s.Dir == "" {
		return
	}
	for i, c := range s.Contracts {
		if c.Wasm != "" && !filepath.IsAbs(c.Wasm) {
			s.Contracts[i].Wasm = filepath.Join(s.Dir, c.Wasm)
		}
	}
}

// ValidateScenario checks that required fields are present and valid.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.TimeMs < 0 {
		return fmt.Errorf("time_ms must be non-negative")
	}
	if len(s.Transactions) == 0 {
		return fmt.Errorf("transactions list is required and must be non-empty")
	}

	for i, name := range s.Accounts {
		if name == "" {
			return fmt.Errorf("accounts[%d]: name is empty", i)
		}
		if _, err := chain.ParseName(name); err != nil {
			return fmt.Errorf("accounts[%d]: %w", i, err)
		}
	}
	for i, c := range s.Contracts {
		if err := validateContract(c); err != nil {
			return fmt.Errorf("contracts[%d]: %w", i, err)
		}
	}
	for i, tx := range s.Transactions {
		if err := validateTransaction(tx); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateContract(c ContractSpec) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := chain.ParseName(c.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	switch {
	case c.Builtin != "" && c.Wasm != "":
		return fmt.Errorf("builtin and wasm are mutually exclusive")
	case c.Builtin != "":
		for _, b := range contracts.BuiltinNames() {
			if b == c.Builtin {
				return nil
			}
		}
		return fmt.Errorf("unknown builtin %q (have %v)", c.Builtin, contracts.BuiltinNames())
	case c.Wasm != "":
		if _, err := os.Stat(c.Wasm); err != nil {
			return fmt.Errorf("wasm file not found: %s", c.Wasm)
		}
		return nil
	default:
		return fmt.Errorf("one of builtin or wasm is required")
	}
}

func validateTransaction(tx TransactionStep) error {
	if tx.AdvanceMs < 0 {
		return fmt.Errorf("advance_ms must be non-negative")
	}
	if len(tx.Actions) == 0 {
		return fmt.Errorf("actions list is required and must be non-empty")
	}
	for i, a := range tx.Actions {
		if _, err := buildAction(a); err != nil {
			return fmt.Errorf("actions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("actions list is required for trace_order")
		}
	case AssertConsoleEquals:
		if a.Console == nil {
			return fmt.Errorf("console is required for console_equals")
		}
	case AssertRowExists, AssertRowAbsent:
		if err := validateTableRef(a); err != nil {
			return err
		}
		if a.PrimaryKey == "" {
			return fmt.Errorf("primary_key is required for %s", a.Type)
		}
		if _, err := ParseKey(a.PrimaryKey); err != nil {
			return fmt.Errorf("primary_key: %w", err)
		}
	case AssertTableSize:
		if err := validateTableRef(a); err != nil {
			return err
		}
		if a.Size == nil || *a.Size < 0 {
			return fmt.Errorf("size must be set and non-negative for table_size")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func validateTableRef(a Assertion) error {
	switch {
	case a.Code == "":
		return fmt.Errorf("code is required for %s", a.Type)
	case a.Scope == "":
		return fmt.Errorf("scope is required for %s", a.Type)
	case a.Table == "":
		return fmt.Errorf("table is required for %s", a.Type)
	}
	return nil
}
