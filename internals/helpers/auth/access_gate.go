// internals/helpers/auth/access_gate.go
package auth

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"policyhub_backend/internals/constants"
)

/* =========================================================
   ACCESS GATE
   Pure capability matrix: (role, operation, resource) → bool.
   The same package also provides the read-side filter so listing,
   get-by-id and download apply exactly the rules the mutations use.
   ========================================================= */

// ErrForbidden is the gate's deny result, ready to bubble out of a handler.
var ErrForbidden = fiber.NewError(fiber.StatusForbidden, "Forbidden: you are not authorized to perform this action")

type Operation string

const (
	OpCreate           Operation = "create"
	OpUpdate           Operation = "update"
	OpDelete           Operation = "delete"
	OpRestore          Operation = "restore"
	OpReplaceDocument  Operation = "replace_document"
	OpToggleVisibility Operation = "toggle_visibility"
	OpApprove          Operation = "approve"
	OpSuspend          Operation = "suspend"
	OpChangeRole       Operation = "change_role"
	OpRead             Operation = "read"
)

type Resource string

const (
	ResCategory   Resource = "category"
	ResPolicyType Resource = "policy_type"
	ResPolicy     Resource = "policy"
	ResUser       Resource = "user"
)

// Allows reports whether a role may perform an operation on a resource kind.
// Deterministic, no side effects.
func Allows(role string, op Operation, res Resource) bool {
	switch role {
	case constants.RoleAdmin:
		return true

	case constants.RolePolicyManager:
		switch res {
		case ResCategory, ResPolicyType:
			// create/update only, no delete/restore
			return op == OpCreate || op == OpUpdate || op == OpRead
		case ResPolicy:
			return op == OpCreate || op == OpUpdate || op == OpReplaceDocument || op == OpRead
		case ResUser:
			return false
		}
		return false

	case constants.RoleUser:
		// read-only, and only on policy reference data
		switch res {
		case ResCategory, ResPolicyType, ResPolicy:
			return op == OpRead
		}
		return false
	}

	// anonymous / unknown role
	return false
}

// Require returns a Forbidden error when the gate denies the operation.
func Require(actor Actor, op Operation, res Resource) error {
	if !Allows(actor.Role, op, res) {
		return ErrForbidden
	}
	return nil
}

/* =========================================================
   Read-side filtering
   ========================================================= */

// CanSeeDeleted: only admins may opt in to soft-deleted records.
func CanSeeDeleted(role string) bool {
	return role == constants.RoleAdmin
}

// CanSeeHidden: the visibility flag only restricts the lowest-privilege role.
func CanSeeHidden(role string) bool {
	return role == constants.RoleAdmin || role == constants.RolePolicyManager
}

// CanViewPolicy decides whether a single policy record is visible to a role.
// Used by get-by-id and download so a hidden/deleted record reads as NotFound
// rather than Forbidden (existence must not leak to non-admins).
func CanViewPolicy(role string, isVisibleToUsers, isDeleted bool) bool {
	if isDeleted {
		return CanSeeDeleted(role)
	}
	if !isVisibleToUsers {
		return CanSeeHidden(role)
	}
	return true
}

// PolicyVisibilityScope applies the hidden-row filter for collection queries.
// The visibility flag never restricts admins or policy managers; a user-role
// (or anonymous) caller never receives hidden rows even when asking for them.
func PolicyVisibilityScope(role string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if CanSeeHidden(role) {
			return db
		}
		return db.Where("policy_is_visible_to_users = ?", true)
	}
}
