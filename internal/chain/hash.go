package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTraces separates trace digests from any other hashed content.
const DomainTraces = "chainsim/traces/v1"

// TransactionID is the hex SHA-256 of the packed transaction, matching the
// id a node would assign.
func TransactionID(tx *Transaction) string {
	sum := sha256.Sum256(PackTransaction(tx))
	return hex.EncodeToString(sum[:])
}

// TraceDigest hashes the canonical JSON of a trace list.
// Identical executions produce identical digests, which makes replays and
// golden comparisons cheap to check.
func TraceDigest(traces []ExecutionTrace) (string, error) {
	list := make([]any, len(traces))
	for i, t := range traces {
		list[i] = t.CanonicalMap()
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTraces, canonical), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
