package auth

import (
	"fmt"
	"strings"
)

// Role gates route access. Stored and serialized in canonical upper case.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOrganizer Role = "ORGANIZER"
	RoleAttendee  Role = "ATTENDEE"
)

// rolePrecedence orders roles for primary-role derivation. The reference
// system picked an arbitrary member of the role set; token issuance needs a
// deterministic answer, so the strongest role wins.
var rolePrecedence = []Role{RoleAdmin, RoleOrganizer, RoleAttendee}

// ParseRole normalizes case-insensitive input to a canonical Role.
// "ORGANISER" is accepted as a spelling variant of ORGANIZER.
func ParseRole(raw string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ADMIN":
		return RoleAdmin, nil
	case "ORGANIZER", "ORGANISER":
		return RoleOrganizer, nil
	case "ATTENDEE":
		return RoleAttendee, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// ParseRoles normalizes and deduplicates a role list. An empty input yields
// an empty set; callers decide whether to apply the ATTENDEE default.
func ParseRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	seen := make(map[Role]struct{}, len(raw))
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

// PrimaryRole derives the single role embedded in an issued token:
// ADMIN > ORGANIZER > ATTENDEE. An empty set maps to ATTENDEE.
func PrimaryRole(roles []Role) Role {
	for _, candidate := range rolePrecedence {
		for _, r := range roles {
			if r == candidate {
				return candidate
			}
		}
	}
	return RoleAttendee
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
