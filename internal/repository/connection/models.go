package connection

// Roles a tab can connect with.
const (
	RolePage  = "page"
	RoleFrame = "frame"
)

func IsValidRole(role string) bool {
	return role == RolePage || role == RoleFrame
}
