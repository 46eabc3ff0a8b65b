package constants

import "fmt"

// Role names as stored on users.role
const (
	RoleAdmin         = "admin"
	RolePolicyManager = "policy_manager"
	RoleUser          = "user"
)

// Template messages for role errors
const (
	ErrOnlyAdminsCanAccess   = "Only admins may access %s."
	ErrOnlyManagersCanAccess = "Only admins or policy managers may access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorManager(feature string) string {
	return fmt.Sprintf(ErrOnlyManagersCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleAdmin,
		RolePolicyManager,
		RoleUser,
	}

	ManagerAndAbove = []string{
		RoleAdmin,
		RolePolicyManager,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
