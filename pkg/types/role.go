package types

// Role determines which sides of the negotiation this peer runs.
// RoleAny accepts both the master and responder code paths.
type Role int

const (
	RoleMaster Role = iota
	RoleResponder
	RoleAny
)

// String returns string representation of Role
func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "Master"
	case RoleResponder:
		return "Responder"
	case RoleAny:
		return "Any"
	default:
		return "Unknown"
	}
}
