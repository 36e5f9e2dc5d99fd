// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package club

import (
	"strings"
)

// Role grants access to a group of club operations.
type Role string

const (
	// RoleAdmin manages accounts.
	RoleAdmin Role = "admin"
	// RoleCaptain schedules matches, records results and selects players.
	RoleCaptain Role = "captain"
	// RolePlayer answers availability polls.
	RolePlayer Role = "player"
)

// AllRoles lists every role in canonical order.
var AllRoles = []Role{RoleAdmin, RoleCaptain, RolePlayer}

// RoleSet is a set of roles kept in canonical order.
type RoleSet []Role

// ParseRoles parses a comma separated role list. Unknown roles are rejected.
func ParseRoles(s string) (RoleSet, error) {
	var unknown []string
	set := make(map[Role]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role := Role(strings.ToLower(part))
		if !role.valid() {
			unknown = append(unknown, part)
			continue
		}
		set[role] = true
	}
	if len(unknown) > 0 {
		return nil, ErrValidation.New("unknown roles %q", unknown)
	}
	return canonical(set), nil
}

// rolesFromCell parses a stored role list, skipping entries it does not know.
func rolesFromCell(s string) RoleSet {
	set := make(map[Role]bool)
	for _, part := range strings.Split(s, ",") {
		role := Role(strings.ToLower(strings.TrimSpace(part)))
		if role.valid() {
			set[role] = true
		}
	}
	return canonical(set)
}

// NewRoleSet returns the canonical set of roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(map[Role]bool, len(roles))
	for _, role := range roles {
		if role.valid() {
			set[role] = true
		}
	}
	return canonical(set)
}

func canonical(set map[Role]bool) RoleSet {
	roles := RoleSet{}
	for _, role := range AllRoles {
		if set[role] {
			roles = append(roles, role)
		}
	}
	return roles
}

func (role Role) valid() bool {
	for _, known := range AllRoles {
		if role == known {
			return true
		}
	}
	return false
}

// Has reports whether the set contains any of roles.
func (set RoleSet) Has(roles ...Role) bool {
	for _, have := range set {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// String returns the comma joined form stored in the users tab.
func (set RoleSet) String() string {
	parts := make([]string, len(set))
	for i, role := range set {
		parts[i] = string(role)
	}
	return strings.Join(parts, ",")
}
