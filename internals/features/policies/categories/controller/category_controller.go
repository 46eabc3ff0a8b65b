// internals/features/policies/categories/controller/category_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	categoryDTO "policyhub_backend/internals/features/policies/categories/dto"
	categoryModel "policyhub_backend/internals/features/policies/categories/model"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
)

var validate = validator.New()

type CategoryController struct {
	DB *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{DB: db}
}

// CREATE
// POST /api/categories
func (ctl *CategoryController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpCreate, helperAuth.ResCategory); err != nil {
		return err
	}

	var req categoryDTO.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.FieldErrors(err))
	}

	var created categoryModel.CategoryModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		taken, err := codeTaken(tx, req.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Category code already in use")
		}

		m := req.ToModel()
		if err := tx.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create category")
		}
		created = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonCreated(c, "Category created", categoryDTO.FromCategoryModel(created))
}

/* =========================================================
   LIST
   GET /api/categories?q=&with_deleted=
   ========================================================= */
func (ctl *CategoryController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	withDeleted := strings.EqualFold(c.Query("with_deleted"), "true") && helperAuth.CanSeeDeleted(actor.Role)

	p := helper.ResolvePaging(c, 50, 200)

	tx := ctl.DB.Model(&categoryModel.CategoryModel{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if kw := strings.TrimSpace(c.Query("q")); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		tx = tx.Where("(LOWER(category_name) LIKE ? OR LOWER(category_code) LIKE ?)", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to count categories")
	}

	var rows []categoryModel.CategoryModel
	if err := tx.Order("category_name ASC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&rows).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list categories")
	}

	return helper.JsonList(c, "Categories found",
		categoryDTO.FromCategoryModels(rows),
		helper.BuildPaginationFromOffset(total, p.Offset, p.Limit),
	)
}

// GET /api/categories/:id
func (ctl *CategoryController) GetByID(c *fiber.Ctx) error {
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

	var m categoryModel.CategoryModel
	if err := q.First(&m, "category_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load category")
	}

	return helper.JsonOK(c, "Category found", categoryDTO.FromCategoryModel(m))
}

// UPDATE (partial)
// PATCH /api/categories/:id
func (ctl *CategoryController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpUpdate, helperAuth.ResCategory); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var req categoryDTO.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.FieldErrors(err))
	}

	var updated categoryModel.CategoryModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m categoryModel.CategoryModel
		if err := tx.First(&m, "category_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Category not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load category")
		}

		if req.Code != nil && *req.Code != m.CategoryCode {
			taken, err := codeTaken(tx, *req.Code, m.CategoryID)
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, "Category code already in use")
			}
		}

		req.Apply(&m)
		if err := tx.Model(&categoryModel.CategoryModel{}).
			Where("category_id = ?", m.CategoryID).
			Updates(map[string]interface{}{
				"category_name":        m.CategoryName,
				"category_code":        m.CategoryCode,
				"category_description": m.CategoryDescription,
			}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update category")
		}
		updated = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonUpdated(c, "Category updated", categoryDTO.FromCategoryModel(updated))
}

/* =========================================================
   DELETE (soft) — idempotent when already deleted
   DELETE /api/categories/:id
   ========================================================= */
func (ctl *CategoryController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpDelete, helperAuth.ResCategory); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var deleted categoryModel.CategoryModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m categoryModel.CategoryModel
		if err := tx.Unscoped().First(&m, "category_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Category not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load category")
		}
		if m.CategoryDeletedAt.Valid {
			deleted = m
			return nil
		}
		if err := tx.Delete(&categoryModel.CategoryModel{}, "category_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete category")
		}
		if err := tx.Unscoped().First(&m, "category_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload category")
		}
		deleted = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonDeleted(c, "Category deleted", categoryDTO.FromCategoryModel(deleted))
}

/* =========================================================
   RESTORE — re-validates code uniqueness among live rows
   POST /api/categories/:id/restore
   ========================================================= */
func (ctl *CategoryController) Restore(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	if err := helperAuth.Require(actor, helperAuth.OpRestore, helperAuth.ResCategory); err != nil {
		return err
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var restored categoryModel.CategoryModel
	if err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		var m categoryModel.CategoryModel
		if err := tx.Unscoped().First(&m, "category_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Category not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load category")
		}
		if !m.CategoryDeletedAt.Valid {
			restored = m
			return nil
		}

		taken, err := codeTaken(tx, m.CategoryCode, m.CategoryID)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Category code has been claimed by another category")
		}

		if err := tx.Unscoped().Model(&categoryModel.CategoryModel{}).
			Where("category_id = ?", id).
			Update("category_deleted_at", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to restore category")
		}
		if err := tx.First(&m, "category_id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload category")
		}
		restored = m
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonUpdated(c, "Category restored", categoryDTO.FromCategoryModel(restored))
}

// codeTaken checks code uniqueness among non-deleted categories only.
func codeTaken(tx *gorm.DB, code string, excludeID uuid.UUID) (bool, error) {
	var cnt int64
	q := tx.Model(&categoryModel.CategoryModel{}).
		Where("lower(category_code) = lower(?) AND category_deleted_at IS NULL", code)
	if excludeID != uuid.Nil {
		q = q.Where("category_id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, fiber.NewError(fiber.StatusInternalServerError, "Failed to check category code")
	}
	return cnt > 0, nil
}
