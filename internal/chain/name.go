package chain

import (
	"fmt"
	"strings"
)

// Name is a base-32 encoded identifier packed into 64 bits.
//
// Up to 12 characters from ".12345abcdefghijklmnopqrstuvwxyz" are stored in
// 5-bit groups from the most significant end; a 13th character may use the
// remaining 4 bits and is therefore limited to ".12345abcdefghij".
//
// The zero Name renders as the empty string and means "no account".
type Name uint64

const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// Well-known names used by the runtime.
var (
	NameOwner     = N("owner")
	NameActive    = N("active")
	NameEosioCode = N("eosio.code")
)

// ParseName encodes s as a Name.
// Returns an error for strings longer than 13 characters, characters outside
// the charmap, or a 13th character that does not fit in 4 bits.
func ParseName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name %q is longer than 13 characters", s)
	}

	var value uint64
	for i := 0; i < 13; i++ {
		var c uint64
		if i < len(s) {
			sym, ok := charToSymbol(s[i])
			if !ok {
				return 0, fmt.Errorf("name %q contains invalid character %q", s, s[i])
			}
			c = sym
		}
		if i < 12 {
			c &= 0x1f
			c <<= 64 - 5*(i+1)
		} else {
			if c > 0x0f {
				return 0, fmt.Errorf("name %q: 13th character must be in [.1-5a-j]", s)
			}
			c &= 0x0f
		}
		value |= c
	}

	n := Name(value)
	if n.String() != strings.TrimRight(s, ".") {
		return 0, fmt.Errorf("name %q is not in canonical form", s)
	}
	return n, nil
}

// N is ParseName for literals known to be valid. It panics on error.
func N(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String decodes the name, trimming trailing dots.
func (n Name) String() string {
	var buf [13]byte
	tmp := uint64(n)
	for i := 0; i <= 12; i++ {
		if i == 0 {
			buf[12-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			buf[12-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}
	return strings.TrimRight(string(buf[:]), ".")
}

// Uint64 returns the raw value.
func (n Name) Uint64() uint64 {
	return uint64(n)
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

func charToSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	}
	return 0, false
}
