package contracts

import (
	"fmt"
	"sort"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

// Factory builds a contract for the account it is deployed at.
type Factory func(account chain.Name) (vm.Module, bool, error)

var builtins = map[string]Factory{
	"token": func(account chain.Name) (vm.Module, bool, error) {
		c, err := NewToken(account)
		return c, false, err
	},
	"counter": func(account chain.Name) (vm.Module, bool, error) {
		c, err := NewCounter(account)
		return c, false, err
	},
	"relay": func(account chain.Name) (vm.Module, bool, error) {
		c, err := NewRelay(account)
		return c, RelaySendsInline(account), err
	},
}

// Builtin returns the module of the named built-in contract for account
// and whether it sends inline actions.
func Builtin(kind string, account chain.Name) (vm.Module, bool, error) {
	f, ok := builtins[kind]
	if !ok {
		return nil, false, fmt.Errorf("unknown builtin contract %q (have %v)", kind, BuiltinNames())
	}
	m, inline, err := f(account)
	if err != nil {
		return nil, false, fmt.Errorf("builtin %s at %s: %w", kind, account, err)
	}
	return m, inline, nil
}

// BuiltinNames lists the built-in contract kinds.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
