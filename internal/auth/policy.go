package auth

import "strings"

// Decision is the outcome of an access-policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Requirement declares who may invoke a route: nobody in particular
// (public), any authenticated identity, or holders of specific roles.
type Requirement struct {
	public  bool
	anyAuth bool
	roles   []Role
}

// Public marks a route as requiring no authentication.
func Public() Requirement { return Requirement{public: true} }

// AnyAuthenticated admits any signed-in identity.
func AnyAuthenticated() Requirement { return Requirement{anyAuth: true} }

// RequireRoles admits identities holding at least one of the given roles.
func RequireRoles(roles ...Role) Requirement { return Requirement{roles: roles} }

// IsPublic reports whether the route needs no authentication.
func (q Requirement) IsPublic() bool { return q.public }

// Satisfied reports whether the given role meets the requirement.
// Public routes are satisfied by anyone, including anonymous callers.
func (q Requirement) Satisfied(role Role) bool {
	if q.public || q.anyAuth {
		return true
	}
	return containsRole(q.roles, role)
}

// Rule binds a route pattern to a requirement. An empty Method matches
// every method. A pattern matches a path when they are equal or when the
// path descends under the pattern (pattern + "/...").
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	pattern := strings.TrimSuffix(r.Pattern, "/")
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

// Policy is a fixed, ordered rule table evaluated first-match-wins.
// Overlapping patterns must therefore be declared most-specific-first.
// It is built at startup and never mutated, so it is safe for unlimited
// concurrent use.
type Policy struct {
	rules    []Rule
	fallback Requirement
}

// NewPolicy builds a policy from an ordered rule list. Unmatched routes
// fall back to any-authenticated, the conservative default.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules, fallback: AnyAuthenticated()}
}

// Requirement resolves the first matching rule for a request.
func (p *Policy) Requirement(method, path string) Requirement {
	for _, rule := range p.rules {
		if rule.matches(method, path) {
			return rule.Require
		}
	}
	return p.fallback
}

// Authorize decides whether an authenticated role may invoke a route.
// It is a pure function of (method, path, role).
func (p *Policy) Authorize(method, path string, role Role) Decision {
	if p.Requirement(method, path).Satisfied(role) {
		return Allow
	}
	return Deny
}

// DefaultPolicy is the route table shipped with the API. Ordering matters:
// /api/events/create and the event write methods shadow the broader
// /api/events read rule.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Pattern: "/api/auth", Require: Public()},
		Rule{Pattern: "/healthz", Require: Public()},
		Rule{Pattern: "/readyz", Require: Public()},
		Rule{Pattern: "/metrics", Require: Public()},
		Rule{Pattern: "/v1/info", Require: Public()},
		Rule{Method: "POST", Pattern: "/api/events/create", Require: RequireRoles(RoleAdmin, RoleOrganizer)},
		Rule{Method: "PUT", Pattern: "/api/events", Require: RequireRoles(RoleAdmin, RoleOrganizer)},
		Rule{Method: "DELETE", Pattern: "/api/events", Require: RequireRoles(RoleAdmin, RoleOrganizer)},
		Rule{Pattern: "/api/events", Require: AnyAuthenticated()},
		Rule{Method: "POST", Pattern: "/api/eventcards", Require: RequireRoles(RoleAdmin, RoleOrganizer)},
		Rule{Pattern: "/api/eventcards", Require: AnyAuthenticated()},
		Rule{Pattern: "/api/tickets", Require: RequireRoles(RoleAttendee)},
		Rule{Pattern: "/api/users", Require: RequireRoles(RoleAdmin, RoleOrganizer)},
		Rule{Pattern: "/api/admin", Require: RequireRoles(RoleAdmin)},
	)
}
