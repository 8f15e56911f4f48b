package authz

// Роли внутри рабочего пространства.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// IsElevated roles may change the pipeline itself (stages, rules, bulk actions).
func IsElevated(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

func IsReadOnly(role string) bool {
	return role == RoleViewer
}

func IsKnown(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}
