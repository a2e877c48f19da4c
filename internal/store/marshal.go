package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/roach88/chainsim/internal/chain"
)

// marshalAuthorization renders an authorization list as a canonical JSON
// array of "actor@permission" strings.
func marshalAuthorization(auth []chain.PermissionLevel) (string, error) {
	levels := make([]string, len(auth))
	for i, p := range auth {
		levels[i] = p.String()
	}
	data, err := chain.MarshalCanonical(levels)
	if err != nil {
		return "", fmt.Errorf("marshal authorization: %w", err)
	}
	return string(data), nil
}

// unmarshalAuthorization parses what marshalAuthorization wrote.
// Returns an empty slice (never nil) for an empty array.
func unmarshalAuthorization(data string) ([]chain.PermissionLevel, error) {
	var levels []string
	if err := json.Unmarshal([]byte(data), &levels); err != nil {
		return nil, fmt.Errorf("unmarshal authorization: %w", err)
	}
	auth := make([]chain.PermissionLevel, 0, len(levels))
	for _, s := range levels {
		p, err := chain.ParsePermissionLevel(s)
		if err != nil {
			return nil, fmt.Errorf("unmarshal authorization: %w", err)
		}
		auth = append(auth, p)
	}
	return auth, nil
}

func parseName(column, s string) (chain.Name, error) {
	n, err := chain.ParseName(s)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", column, err)
	}
	return n, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("scan data_hex: %w", err)
	}
	return b, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
