// internals/features/users/user/controller/user_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"policyhub_backend/internals/constants"
	authService "policyhub_backend/internals/features/users/auth/service"
	userDTO "policyhub_backend/internals/features/users/user/dto"
	userModel "policyhub_backend/internals/features/users/user/model"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
)

/* =======================================================
   Admin user management: approval workflow, suspension,
   soft-delete/restore and role changes.
   ======================================================= */

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GET /api/users?q=&role=&pending=&with_deleted=
func (ctl *UserController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpRead, helperAuth.ResUser); err != nil {
		return err
	}

	var q userDTO.ListUserQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	tx := ctl.DB.WithContext(c.UserContext()).Model(&userModel.UserModel{})
	if q.WithDeleted != nil && *q.WithDeleted {
		tx = tx.Unscoped()
	}
	if role := strings.TrimSpace(q.Role); role != "" {
		tx = tx.Where("role = ?", role)
	}
	if q.Pending != nil && *q.Pending {
		tx = tx.Where("is_approved = ?", false)
	}
	if kw := strings.TrimSpace(q.Q); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to count users")
	}

	p := helper.ResolvePaging(c, 20, 200)
	var rows []userModel.UserModel
	if err := tx.Order("created_at ASC").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list users")
	}

	return helper.JsonList(c, "Users found",
		userDTO.FromUserModels(rows),
		helper.BuildPaginationFromOffset(total, p.Offset, p.Limit),
	)
}

// GET /api/users/:id
func (ctl *UserController) GetByID(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpRead, helperAuth.ResUser); err != nil {
		return err
	}
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	u, err := ctl.loadUser(c, id, true)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "User found", userDTO.FromUserModel(u))
}

// POST /api/users/:id/approve
func (ctl *UserController) Approve(c *fiber.Ctx) error {
	return ctl.mutate(c, helperAuth.OpApprove, "User approved", func(tx *gorm.DB, u *userModel.UserModel) error {
		if u.IsApproved {
			return nil // already approved, idempotent
		}
		return tx.Model(u).Update("is_approved", true).Error
	})
}

// POST /api/users/:id/suspend
func (ctl *UserController) Suspend(c *fiber.Ctx) error {
	return ctl.mutate(c, helperAuth.OpSuspend, "User suspended", func(tx *gorm.DB, u *userModel.UserModel) error {
		if u.IsSuspended {
			return nil
		}
		// suspension must not erase approval; it is a reversible lockout
		return tx.Model(u).Update("is_suspended", true).Error
	})
}

// POST /api/users/:id/restore — lifts suspension and, when the account was
// soft-deleted, un-deletes it after re-validating identity uniqueness.
func (ctl *UserController) Restore(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpRestore, helperAuth.ResUser); err != nil {
		return err
	}
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var out userModel.UserModel
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var u userModel.UserModel
		if err := tx.Unscoped().First(&u, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "User not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
		}

		updates := map[string]interface{}{"is_suspended": false}
		if u.DeletedAt.Valid {
			// a live account may have claimed the identity while this one
			// was deleted
			taken, err := authService.IdentityTaken(tx, strings.ToLower(u.Username), strings.ToLower(u.Email), u.ID.String())
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, "Username or email is now used by another account")
			}
			updates["deleted_at"] = nil
		}

		if err := tx.Unscoped().Model(&u).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to restore user")
		}
		if err := tx.Unscoped().First(&u, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload user")
		}
		out = u
		return nil
	})
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "User restored", userDTO.FromUserModel(out))
}

// DELETE /api/users/:id — soft delete, idempotent
func (ctl *UserController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpDelete, helperAuth.ResUser); err != nil {
		return err
	}
	id, err := parseUserID(c)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot delete your own account")
	}

	u, err := ctl.loadUser(c, id, true)
	if err != nil {
		return err
	}
	if !u.DeletedAt.Valid {
		if err := ctl.DB.WithContext(c.UserContext()).Delete(&u).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete user")
		}
		u, err = ctl.loadUserUnscoped(c, id)
		if err != nil {
			return err
		}
	}
	return helper.JsonDeleted(c, "User deleted", userDTO.FromUserModel(u))
}

// PATCH /api/users/:id/role — takes effect immediately, no re-approval
func (ctl *UserController) ChangeRole(c *fiber.Ctx) error {
	var req userDTO.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	req.Role = strings.TrimSpace(strings.ToLower(req.Role))
	if !constants.IsValidRole(req.Role) {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown role")
	}

	return ctl.mutate(c, helperAuth.OpChangeRole, "Role updated", func(tx *gorm.DB, u *userModel.UserModel) error {
		if u.Role == req.Role {
			return nil
		}
		return tx.Model(u).Update("role", req.Role).Error
	})
}

/* ===============================
   internals
=================================*/

// mutate runs an admin mutation against a live user row inside a transaction
// and returns the updated record.
func (ctl *UserController) mutate(c *fiber.Ctx, op helperAuth.Operation, message string, fn func(tx *gorm.DB, u *userModel.UserModel) error) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, op, helperAuth.ResUser); err != nil {
		return err
	}
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var out userModel.UserModel
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var u userModel.UserModel
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "User not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
		}
		if err := fn(tx, &u); err != nil {
			if _, ok := err.(*fiber.Error); ok {
				return err
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update user")
		}
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload user")
		}
		out = u
		return nil
	})
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, message, userDTO.FromUserModel(out))
}

func (ctl *UserController) loadUser(c *fiber.Ctx, id uuid.UUID, unscoped bool) (userModel.UserModel, error) {
	var u userModel.UserModel
	tx := ctl.DB.WithContext(c.UserContext())
	if unscoped {
		tx = tx.Unscoped()
	}
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return u, fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
	}
	return u, nil
}

func (ctl *UserController) loadUserUnscoped(c *fiber.Ctx, id uuid.UUID) (userModel.UserModel, error) {
	return ctl.loadUser(c, id, true)
}

func parseUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}
