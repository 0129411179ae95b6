package domain

// Role is the closed set of account roles
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a string to a known role, reporting whether it matched
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

// PermittedBy reports whether the role is in the allowed set
func (r Role) PermittedBy(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
