package chain

import "sort"

// PermissionLevelWeight is one weighted entry of an Authority.
type PermissionLevelWeight struct {
	Permission PermissionLevel `json:"permission"`
	Weight     uint16          `json:"weight"`
}

// Authority is a weighted threshold over permission levels.
// Key and wait weights are not modelled.
type Authority struct {
	Threshold uint32                  `json:"threshold"`
	Accounts  []PermissionLevelWeight `json:"accounts"`
}

// SatisfiedBy reports whether the weights of entries equal to p reach the
// threshold.
func (a Authority) SatisfiedBy(p PermissionLevel) bool {
	var weight uint32
	for _, w := range a.Accounts {
		if w.Permission == p {
			weight += uint32(w.Weight)
		}
	}
	return weight >= a.Threshold
}

// Sort orders the entries by (actor, permission), the canonical order a
// node requires.
func (a *Authority) Sort() {
	sort.SliceStable(a.Accounts, func(i, j int) bool {
		x, y := a.Accounts[i].Permission, a.Accounts[j].Permission
		if x.Actor != y.Actor {
			return x.Actor < y.Actor
		}
		return x.Permission < y.Permission
	})
}

// Permission is a named permission of an account.
type Permission struct {
	Name         Name      `json:"perm_name"`
	Parent       Name      `json:"parent"`
	RequiredAuth Authority `json:"required_auth"`
}

// DefaultPermissions returns the owner and active permissions every new
// account gets: threshold 1 over account@owner and account@active.
func DefaultPermissions(account Name) []Permission {
	return []Permission{
		{
			Name: NameOwner,
			RequiredAuth: Authority{Threshold: 1, Accounts: []PermissionLevelWeight{
				{Permission: PermissionLevel{Actor: account, Permission: NameOwner}, Weight: 1},
			}},
		},
		{
			Name:   NameActive,
			Parent: NameOwner,
			RequiredAuth: Authority{Threshold: 1, Accounts: []PermissionLevelWeight{
				{Permission: PermissionLevel{Actor: account, Permission: NameActive}, Weight: 1},
			}},
		},
	}
}
