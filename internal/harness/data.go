package harness

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/native"
)

// EncodeData packs typed fields in order. Each field is "kind:value":
//
//	name:alice          8-byte account name
//	asset:1.0000 TOK    amount and symbol
//	symbol:4,TOK        precision and code
//	string:memo         varuint32 length and bytes
//	u64:5, i64:-5       little-endian integers
func EncodeData(fields []string) ([]byte, error) {
	enc := native.NewEncoder()
	for i, f := range fields {
		if err := encodeField(enc, f); err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
	}
	return enc.Bytes(), nil
}

func encodeField(enc *native.Encoder, f string) error {
	kind, value, ok := strings.Cut(f, ":")
	if !ok {
		return fmt.Errorf("field %q: expected kind:value", f)
	}
	switch kind {
	case "name":
		n, err := chain.ParseName(value)
		if err != nil {
			return err
		}
		enc.Name(n)
	case "asset":
		a, err := native.ParseAsset(value)
		if err != nil {
			return err
		}
		enc.Asset(a)
	case "symbol":
		s, err := native.ParseSymbol(value)
		if err != nil {
			return err
		}
		enc.Symbol(s)
	case "string":
		enc.Str(value)
	case "u64":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("u64 %q: %w", value, err)
		}
		enc.Uint64(v)
	case "i64":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("i64 %q: %w", value, err)
		}
		enc.Int64(v)
	default:
		return fmt.Errorf("field %q: unknown kind %q", f, kind)
	}
	return nil
}

// ParseKey parses a primary key: a plain decimal, "u64:N", "name:alice"
// or "symbol_code:TOK".
func ParseKey(s string) (uint64, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		kind, value = "u64", s
	}
	switch kind {
	case "u64":
		return strconv.ParseUint(value, 10, 64)
	case "name":
		n, err := chain.ParseName(value)
		return uint64(n), err
	case "symbol_code":
		sym, err := native.NewSymbol(0, value)
		if err != nil {
			return 0, err
		}
		return sym.CodeRaw(), nil
	default:
		return 0, fmt.Errorf("key %q: unknown kind %q", s, kind)
	}
}

// buildAction converts a scenario action into a chain action.
func buildAction(a ActionStep) (chain.Action, error) {
	var out chain.Action
	var err error
	if a.Account == "" || a.Name == "" {
		return out, fmt.Errorf("account and name are required")
	}
	if out.Account, err = chain.ParseName(a.Account); err != nil {
		return out, fmt.Errorf("account: %w", err)
	}
	if out.Name, err = chain.ParseName(a.Name); err != nil {
		return out, fmt.Errorf("name: %w", err)
	}
	out.Authorization = make([]chain.PermissionLevel, len(a.Authorization))
	for i, s := range a.Authorization {
		if out.Authorization[i], err = chain.ParsePermissionLevel(s); err != nil {
			return out, fmt.Errorf("authorization[%d]: %w", i, err)
		}
	}
	switch {
	case len(a.Data) > 0 && a.DataHex != "":
		return out, fmt.Errorf("data and data_hex are mutually exclusive")
	case a.DataHex != "":
		if out.Data, err = hex.DecodeString(a.DataHex); err != nil {
			return out, fmt.Errorf("data_hex: %w", err)
		}
	default:
		if out.Data, err = EncodeData(a.Data); err != nil {
			return out, err
		}
	}
	return out, nil
}
