// Package access resolves effective lock roles and builds shared-access
// reports over the ownership, direct-grant, and group-grant relations.
package access

// Role is the effective relation between a user and a lock. Ownership is
// derived from the lock row, never stored as a grant, so the four values
// form a strict precedence order.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleNone  Role = "none"
)

func precedence(role Role) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Max returns the higher-precedence of two roles.
func Max(a, b Role) Role {
	if precedence(b) > precedence(a) {
		return b
	}
	return a
}

// Controls reports whether the role can administer a lock.
func (r Role) Controls() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanRemove reports whether a holder of myRole may revoke targetRole's
// access: owners may revoke anyone, admins only plain users. Removal power
// never exceeds grant power.
func CanRemove(myRole, targetRole Role) bool {
	if myRole == RoleOwner {
		return true
	}
	return myRole == RoleAdmin && targetRole == RoleUser
}

// Granted normalizes a stored grant role. Grant rows only ever hold "admin"
// or "user"; anything else is treated as no grant.
func Granted(role string) Role {
	switch Role(role) {
	case RoleAdmin:
		return RoleAdmin
	case RoleUser:
		return RoleUser
	default:
		return RoleNone
	}
}
