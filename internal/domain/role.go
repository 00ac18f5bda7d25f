package domain

import "strings"

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleAgent  Role = "AGENT"
	RoleViewer Role = "VIEWER"
)

// DefaultRole is assigned when registration omits a role.
const DefaultRole = RoleAgent

// ParseRole validates a role name. Matching is case-insensitive.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleAgent:
		return RoleAgent, true
	case RoleViewer:
		return RoleViewer, true
	}
	return "", false
}

// CrossTenant reports whether the role is exempt from company scoping.
func (r Role) CrossTenant() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
