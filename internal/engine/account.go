package engine

import (
	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/vm"
)

// Account is a named account on the blockchain. Accounts with code are
// contracts.
type Account struct {
	name        chain.Name
	permissions []chain.Permission
	created     chain.TimePoint
	sendsInline bool

	// vm is nil for plain accounts.
	vm *vm.VM
}

// newAccount builds an account with the default owner and active
// permissions. sendsInline adds name@eosio.code to active so the account's
// code can send inline actions on its own behalf.
func newAccount(name chain.Name, created chain.TimePoint, sendsInline bool) *Account {
	perms := chain.DefaultPermissions(name)
	if sendsInline {
		for i := range perms {
			if perms[i].Name != chain.NameActive {
				continue
			}
			perms[i].RequiredAuth.Accounts = append(perms[i].RequiredAuth.Accounts, chain.PermissionLevelWeight{
				Permission: chain.PermissionLevel{Actor: name, Permission: chain.NameEosioCode},
				Weight:     1,
			})
			perms[i].RequiredAuth.Sort()
		}
	}
	return &Account{
		name:        name,
		permissions: perms,
		created:     created,
		sendsInline: sendsInline,
	}
}

func (a *Account) Name() chain.Name              { return a.name }
func (a *Account) IsContract() bool              { return a.vm != nil }
func (a *Account) SendsInline() bool             { return a.sendsInline }
func (a *Account) CreationTime() chain.TimePoint { return a.created }

// VM returns the account's VM, or nil for a plain account.
func (a *Account) VM() *vm.VM {
	return a.vm
}

// Permission looks up a permission by name.
func (a *Account) Permission(name chain.Name) (chain.Permission, bool) {
	for _, p := range a.permissions {
		if p.Name == name {
			return p, true
		}
	}
	return chain.Permission{}, false
}

// Permissions returns a copy of the account's permissions.
func (a *Account) Permissions() []chain.Permission {
	out := make([]chain.Permission, len(a.permissions))
	copy(out, a.permissions)
	return out
}
