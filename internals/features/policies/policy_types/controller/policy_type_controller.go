// internals/features/policies/policy_types/controller/policy_type_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	typeDTO "policyhub_backend/internals/features/policies/policy_types/dto"
	typeModel "policyhub_backend/internals/features/policies/policy_types/model"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
)

var validate = validator.New()

type PolicyTypeController struct {
	DB *gorm.DB
}

func NewPolicyTypeController(db *gorm.DB) *PolicyTypeController {
	return &PolicyTypeController{DB: db}
}

// CREATE
// POST /api/policy-types
func (ctl *PolicyTypeController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpCreate, helperAuth.ResPolicyType); err != nil {
		return err
	}

	var req typeDTO.CreatePolicyTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.FieldErrors(err))
	}

	var created typeModel.PolicyTypeModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		taken, err := typeCodeTaken(tx, req.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Policy type code already in use")
		}

		m := req.ToModel()
		if err := tx.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create policy type")
		}
		created = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonCreated(c, "Policy type created", typeDTO.FromPolicyTypeModel(created))
}

/* =========================================================
   LIST
   GET /api/policy-types?active=&with_deleted=
   active=true is what upload pickers use: inactive types stay
   out of the picker while existing policies keep the reference.
   ========================================================= */
func (ctl *PolicyTypeController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	withDeleted := strings.EqualFold(c.Query("with_deleted"), "true") && helperAuth.CanSeeDeleted(actor.Role)

	p := helper.ResolvePaging(c, 50, 200)

	tx := ctl.DB.Model(&typeModel.PolicyTypeModel{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if active := strings.TrimSpace(c.Query("active")); active != "" {
		tx = tx.Where("policy_type_is_active = ?", strings.EqualFold(active, "true"))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to count policy types")
	}

	var rows []typeModel.PolicyTypeModel
	if err := tx.Order("policy_type_name ASC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list policy types")
	}

	return helper.JsonList(c, "Policy types found",
		typeDTO.FromPolicyTypeModels(rows),
		helper.BuildPaginationFromOffset(total, p.Offset, p.Limit),
	)
}

// GET /api/policy-types/:id
func (ctl *PolicyTypeController) GetByID(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	q := ctl.DB
	if helperAuth.CanSeeDeleted(actor.Role) {
		q = q.Unscoped()
	}

	var m typeModel.PolicyTypeModel
	if err := q.First(&m, "policy_type_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Policy type not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy type")
	}

	return helper.JsonOK(c, "Policy type found", typeDTO.FromPolicyTypeModel(m))
}

// UPDATE (partial, includes the is_active toggle)
// PATCH /api/policy-types/:id
func (ctl *PolicyTypeController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpUpdate, helperAuth.ResPolicyType); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var req typeDTO.UpdatePolicyTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.FieldErrors(err))
	}

	var updated typeModel.PolicyTypeModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m typeModel.PolicyTypeModel
		if err := tx.First(&m, "policy_type_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy type not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy type")
		}

		if req.Code != nil && *req.Code != m.PolicyTypeCode {
			taken, err := typeCodeTaken(tx, *req.Code, m.PolicyTypeID)
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, "Policy type code already in use")
			}
		}

		req.Apply(&m)
		if err := tx.Model(&typeModel.PolicyTypeModel{}).
			Where("policy_type_id = ?", m.PolicyTypeID).
			Updates(map[string]interface{}{
				"policy_type_name":        m.PolicyTypeName,
				"policy_type_code":        m.PolicyTypeCode,
				"policy_type_description": m.PolicyTypeDescription,
				"policy_type_is_active":   m.PolicyTypeIsActive,
			}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update policy type")
		}
		updated = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonUpdated(c, "Policy type updated", typeDTO.FromPolicyTypeModel(updated))
}

// DELETE (soft) — idempotent when already deleted
// DELETE /api/policy-types/:id
func (ctl *PolicyTypeController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpDelete, helperAuth.ResPolicyType); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var deleted typeModel.PolicyTypeModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m typeModel.PolicyTypeModel
		if err := tx.Unscoped().First(&m, "policy_type_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy type not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy type")
		}
		if m.PolicyTypeDeletedAt.Valid {
			deleted = m
			return nil
		}
		if err := tx.Delete(&typeModel.PolicyTypeModel{}, "policy_type_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete policy type")
		}
		if err := tx.Unscoped().First(&m, "policy_type_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload policy type")
		}
		deleted = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonDeleted(c, "Policy type deleted", typeDTO.FromPolicyTypeModel(deleted))
}

// RESTORE — re-validates code uniqueness among live rows
// POST /api/policy-types/:id/restore
func (ctl *PolicyTypeController) Restore(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpRestore, helperAuth.ResPolicyType); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var restored typeModel.PolicyTypeModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m typeModel.PolicyTypeModel
		if err := tx.Unscoped().First(&m, "policy_type_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy type not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy type")
		}
		if !m.PolicyTypeDeletedAt.Valid {
			restored = m
			return nil
		}

		taken, err := typeCodeTaken(tx, m.PolicyTypeCode, m.PolicyTypeID)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Policy type code has been claimed by another type")
		}

		if err := tx.Unscoped().Model(&typeModel.PolicyTypeModel{}).
			Where("policy_type_id = ?", id).
			Update("policy_type_deleted_at", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to restore policy type")
		}
		if err := tx.First(&m, "policy_type_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload policy type")
		}
		restored = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonUpdated(c, "Policy type restored", typeDTO.FromPolicyTypeModel(restored))
}

func typeCodeTaken(tx *gorm.DB, code string, excludeID uuid.UUID) (bool, error) {
	var cnt int64
	q := tx.Model(&typeModel.PolicyTypeModel{}).
		Where("lower(policy_type_code) = lower(?) AND policy_type_deleted_at IS NULL", code)
	if excludeID != uuid.Nil {
		q = q.Where("policy_type_id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, fiber.NewError(fiber.StatusInternalServerError, "Failed to check policy type code")
	}
	return cnt > 0, nil
}
