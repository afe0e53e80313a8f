package domain

import (
	"errors"
	"fmt"
)

// Role is a coarse authorization grade. The set is closed; anything else is
// rejected at the transport boundary.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseRoles validates a list of role strings. An empty input yields the
// default [user] set so the non-empty invariant holds.
func ParseRoles(ss []string) ([]Role, error) {
	if len(ss) == 0 {
		return []Role{RoleUser}, nil
	}
	roles := make([]Role, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// RoleStrings converts a role set to plain strings for claim embedding.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
