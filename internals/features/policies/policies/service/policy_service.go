// internals/features/policies/policies/service/policy_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	categoryModel "policyhub_backend/internals/features/policies/categories/model"
	policyDTO "policyhub_backend/internals/features/policies/policies/dto"
	policyModel "policyhub_backend/internals/features/policies/policies/model"
	typeModel "policyhub_backend/internals/features/policies/policy_types/model"
	helperAuth "policyhub_backend/internals/helpers/auth"
	"policyhub_backend/internals/helpers/storage"
)

const defaultChangeSummary = "Document updated"

var validate = validator.New()

// PolicyService is the document lifecycle engine: creation, versioned
// replacement, visibility, soft-delete/restore and role-filtered reads.
type PolicyService struct {
	DB   *gorm.DB
	Blob storage.BlobService
}

func NewPolicyService(db *gorm.DB, blob storage.BlobService) *PolicyService {
	return &PolicyService{DB: db, Blob: blob}
}

/* =========================================================
   CREATE (version = 1)
   ========================================================= */

func (s *PolicyService) Create(ctx context.Context, actor helperAuth.Actor, req policyDTO.CreatePolicyRequest, fh *multipart.FileHeader) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpCreate, helperAuth.ResPolicy); err != nil {
		return out, err
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if fh == nil {
		return out, fiber.NewError(fiber.StatusBadRequest, "Document file is required")
	}
	if err := storage.ValidateDocumentExt(fh.Filename); err != nil {
		return out, err
	}

	dateIssued, err := policyDTO.ParseDateIssued(req.DateIssued)
	if err != nil {
		return out, err
	}
	categoryID, _ := uuid.Parse(req.CategoryID)
	policyTypeID, _ := uuid.Parse(req.PolicyTypeID)

	policyID := uuid.New()
	fileURL, _, err := s.Blob.UploadDocument(ctx, "policies/"+policyID.String(), fh)
	if err != nil {
		return out, fiber.NewError(fiber.StatusInternalServerError, "Failed to store document")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category categoryModel.CategoryModel
		if err := tx.First(&category, "category_id = ?", categoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "Category not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load category")
		}

		var pType typeModel.PolicyTypeModel
		if err := tx.First(&pType, "policy_type_id = ?", policyTypeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "Policy type not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy type")
		}
		if !pType.PolicyTypeIsActive {
			return fiber.NewError(fiber.StatusBadRequest, "Policy type is inactive")
		}

		number := req.PolicyNumber
		if number == "" {
			generated, err := nextPolicyNumber(tx, category, pType)
			if err != nil {
				return err
			}
			number = generated
		} else {
			taken, err := policyNumberTaken(tx, number, uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return fiber.NewError(fiber.StatusConflict, "Policy number already in use")
			}
		}

		m := policyModel.PolicyModel{
			PolicyID:               policyID,
			PolicyNumber:           number,
			PolicyTitle:            req.Title,
			PolicyCategoryID:       categoryID,
			PolicyTypeID:           policyTypeID,
			PolicyOwnerDepartment:  req.OwnerDepartment,
			PolicyDateIssued:       dateIssued,
			PolicyStatus:           policyModel.StatusActive,
			PolicyIsVisibleToUsers: true,
			PolicyVersion:          1,
			PolicyFileURL:          fileURL,
			PolicyFileName:         fh.Filename,
			PolicyCreatedBy:        actor.Username,
		}
		if err := tx.Create(&m).Error; err != nil {
			if isDuplicateErr(err) {
				return fiber.NewError(fiber.StatusConflict, "Policy number already in use")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create policy")
		}

		out = m
		return nil
	})
	return out, err
}

/* =========================================================
   REPLACE DOCUMENT (version += 1, history append)
   ========================================================= */

func (s *PolicyService) ReplaceDocument(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID, req policyDTO.ReplaceDocumentRequest, fh *multipart.FileHeader) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpReplaceDocument, helperAuth.ResPolicy); err != nil {
		return out, err
	}
	if fh == nil {
		return out, fiber.NewError(fiber.StatusBadRequest, "Document file is required")
	}
	if err := storage.ValidateDocumentExt(fh.Filename); err != nil {
		return out, err
	}

	summary := strings.TrimSpace(req.ChangeSummary)
	if summary == "" {
		summary = defaultChangeSummary
	}

	fileURL, _, err := s.Blob.UploadDocument(ctx, "policies/"+policyID.String(), fh)
	if err != nil {
		return out, fiber.NewError(fiber.StatusInternalServerError, "Failed to store document")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m policyModel.PolicyModel
		if err := tx.First(&m, "policy_id = ?", policyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
		}

		expected := m.PolicyVersion
		if req.ExpectedVersion != nil {
			expected = *req.ExpectedVersion
		}
		next := expected + 1

		// guarded update: the version column is the concurrency token, so of
		// two racing replacements exactly one can match the expected value
		res := tx.Model(&policyModel.PolicyModel{}).
			Where("policy_id = ? AND policy_version = ?", policyID, expected).
			Updates(map[string]interface{}{
				"policy_version":   next,
				"policy_file_url":  fileURL,
				"policy_file_name": fh.Filename,
			})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update policy")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Policy was modified concurrently; re-fetch and retry")
		}

		hist := policyModel.PolicyVersionModel{
			PolicyVersionPolicyID:      policyID,
			PolicyVersionNumber:        next,
			PolicyVersionChangeSummary: summary,
			PolicyVersionUploadedBy:    actor.Username,
			PolicyVersionFileURL:       fileURL,
			PolicyVersionFileName:      fh.Filename,
		}
		if err := tx.Create(&hist).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to record version history")
		}

		if err := tx.First(&m, "policy_id = ?", policyID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload policy")
		}
		out = m
		return nil
	})
	return out, err
}

/* =========================================================
   UPDATE metadata
   ========================================================= */

func (s *PolicyService) UpdateMetadata(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID, req policyDTO.UpdatePolicyRequest) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpUpdate, helperAuth.ResPolicy); err != nil {
		return out, err
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m policyModel.PolicyModel
		if err := tx.First(&m, "policy_id = ?", policyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
		}

		if req.Title != nil {
			m.PolicyTitle = *req.Title
		}
		if req.OwnerDepartment != nil {
			m.PolicyOwnerDepartment = *req.OwnerDepartment
		}
		if req.Status != nil {
			if !policyModel.IsValidStoredStatus(*req.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Status must be active or archived")
			}
			m.PolicyStatus = *req.Status
		}
		if req.DateIssued != nil {
			t, err := policyDTO.ParseDateIssued(*req.DateIssued)
			if err != nil {
				return err
			}
			m.PolicyDateIssued = t
		}
		if req.CategoryID != nil {
			id, _ := uuid.Parse(*req.CategoryID)
			var category categoryModel.CategoryModel
			if err := tx.First(&category, "category_id = ?", id).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Category not found")
			}
			m.PolicyCategoryID = id
		}
		if req.PolicyTypeID != nil {
			id, _ := uuid.Parse(*req.PolicyTypeID)
			var pType typeModel.PolicyTypeModel
			if err := tx.First(&pType, "policy_type_id = ?", id).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Policy type not found")
			}
			m.PolicyTypeID = id
		}

		if err := tx.Model(&policyModel.PolicyModel{}).
			Where("policy_id = ?", m.PolicyID).
			Updates(map[string]interface{}{
				"policy_title":            m.PolicyTitle,
				"policy_owner_department": m.PolicyOwnerDepartment,
				"policy_status":           m.PolicyStatus,
				"policy_date_issued":      m.PolicyDateIssued,
				"policy_category_id":      m.PolicyCategoryID,
				"policy_type_id":          m.PolicyTypeID,
			}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update policy")
		}

		out = m
		return nil
	})
	return out, err
}

/* =========================================================
   VISIBILITY (admin only; orthogonal to version and status)
   ========================================================= */

func (s *PolicyService) ToggleVisibility(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID, visible bool) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpToggleVisibility, helperAuth.ResPolicy); err != nil {
		return out, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m policyModel.PolicyModel
		if err := tx.First(&m, "policy_id = ?", policyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
		}

		if err := tx.Model(&policyModel.PolicyModel{}).
			Where("policy_id = ?", policyID).
			Update("policy_is_visible_to_users", visible).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update visibility")
		}

		m.PolicyIsVisibleToUsers = visible
		out = m
		return nil
	})
	return out, err
}

/* =========================================================
   SOFT DELETE / RESTORE
   ========================================================= */

// SoftDelete marks the policy deleted. Deleting an already-deleted policy is
// an idempotent no-op.
func (s *PolicyService) SoftDelete(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpDelete, helperAuth.ResPolicy); err != nil {
		return out, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m policyModel.PolicyModel
		if err := tx.Unscoped().First(&m, "policy_id = ?", policyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
		}
		if m.PolicyDeletedAt.Valid {
			out = m
			return nil
		}
		if err := tx.Delete(&policyModel.PolicyModel{}, "policy_id = ?", policyID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete policy")
		}
		if err := tx.Unscoped().First(&m, "policy_id = ?", policyID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload policy")
		}
		out = m
		return nil
	})
	return out, err
}

// Restore clears the soft-delete marker. The policy number must still be free
// among live policies; otherwise the restore fails with Conflict and the newer
// record is left untouched.
func (s *PolicyService) Restore(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID) (policyModel.PolicyModel, error) {
	var out policyModel.PolicyModel

	if err := helperAuth.Require(actor, helperAuth.OpRestore, helperAuth.ResPolicy); err != nil {
		return out, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m policyModel.PolicyModel
		if err := tx.Unscoped().First(&m, "policy_id = ?", policyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Policy not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
		}
		if !m.PolicyDeletedAt.Valid {
			out = m
			return nil
		}

		taken, err := policyNumberTaken(tx, m.PolicyNumber, m.PolicyID)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Policy number has been claimed by another policy")
		}

		if err := tx.Unscoped().Model(&policyModel.PolicyModel{}).
			Where("policy_id = ?", policyID).
			Update("policy_deleted_at", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to restore policy")
		}

		if err := tx.First(&m, "policy_id = ?", policyID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to reload policy")
		}
		out = m
		return nil
	})
	return out, err
}

/* =========================================================
   READS (gate doubles as the filter predicate)
   ========================================================= */

// Get loads one policy with full history. Records the caller may not see read
// as NotFound so their existence does not leak.
func (s *PolicyService) Get(ctx context.Context, actor helperAuth.Actor, policyID uuid.UUID) (policyModel.PolicyModel, []policyModel.PolicyVersionModel, error) {
	var m policyModel.PolicyModel

	q := s.DB.WithContext(ctx)
	if helperAuth.CanSeeDeleted(actor.Role) {
		q = q.Unscoped()
	}
	if err := q.First(&m, "policy_id = ?", policyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, nil, fiber.NewError(fiber.StatusNotFound, "Policy not found")
		}
		return m, nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load policy")
	}

	if !helperAuth.CanViewPolicy(actor.Role, m.PolicyIsVisibleToUsers, m.PolicyDeletedAt.Valid) {
		return policyModel.PolicyModel{}, nil, fiber.NewError(fiber.StatusNotFound, "Policy not found")
	}

	var history []policyModel.PolicyVersionModel
	if err := s.DB.WithContext(ctx).
		Where("policy_version_policy_id = ?", policyID).
		Order("policy_version_number ASC").
		Find(&history).Error; err != nil {
		return policyModel.PolicyModel{}, nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load version history")
	}
	return m, history, nil
}

// List applies the same visibility rules as the single-record reads. The
// include flags are honored only for roles the gate allows them for.
func (s *PolicyService) List(ctx context.Context, actor helperAuth.Actor, q policyDTO.ListPolicyQuery, limit, offset int) ([]policyModel.PolicyModel, int64, error) {
	includeDeleted := q.IncludeDeleted != nil && *q.IncludeDeleted && helperAuth.CanSeeDeleted(actor.Role)

	tx := s.DB.WithContext(ctx).Model(&policyModel.PolicyModel{})
	if includeDeleted {
		tx = tx.Unscoped()
	}
	tx = tx.Scopes(helperAuth.PolicyVisibilityScope(actor.Role))

	if q.Status != nil && strings.TrimSpace(*q.Status) != "" {
		switch status := strings.ToLower(strings.TrimSpace(*q.Status)); status {
		case policyModel.StatusDeleted:
			if !includeDeleted {
				return []policyModel.PolicyModel{}, 0, nil
			}
			tx = tx.Where("policy_deleted_at IS NOT NULL")
		default:
			tx = tx.Where("policy_status = ?", status)
			if includeDeleted {
				// a deleted row reports status "deleted", never its stored value
				tx = tx.Where("policy_deleted_at IS NULL")
			}
		}
	}
	if q.CategoryID != nil && strings.TrimSpace(*q.CategoryID) != "" {
		tx = tx.Where("policy_category_id = ?", strings.TrimSpace(*q.CategoryID))
	}
	if q.PolicyTypeID != nil && strings.TrimSpace(*q.PolicyTypeID) != "" {
		tx = tx.Where("policy_type_id = ?", strings.TrimSpace(*q.PolicyTypeID))
	}
	if q.Q != nil && strings.TrimSpace(*q.Q) != "" {
		kw := "%" + strings.ToLower(strings.TrimSpace(*q.Q)) + "%"
		tx = tx.Where("(LOWER(policy_title) LIKE ? OR LOWER(policy_number) LIKE ?)", kw, kw)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Failed to count policies")
	}

	var rows []policyModel.PolicyModel
	if err := tx.Order("policy_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Failed to list policies")
	}
	return rows, total, nil
}

/* =========================================================
   Internals
   ========================================================= */

// nextPolicyNumber issues <CategoryCode>-<TypeCode>-<seq> from the sequence
// row of the (category, type) pair, skipping over manually assigned numbers.
func nextPolicyNumber(tx *gorm.DB, category categoryModel.CategoryModel, pType typeModel.PolicyTypeModel) (string, error) {
	var seq policyModel.PolicyNumberSequenceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sequence_category_id = ? AND sequence_policy_type_id = ?", category.CategoryID, pType.PolicyTypeID).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = policyModel.PolicyNumberSequenceModel{
			SequenceCategoryID:   category.CategoryID,
			SequencePolicyTypeID: pType.PolicyTypeID,
			SequenceLastValue:    0,
		}
		if err := tx.Create(&seq).Error; err != nil {
			return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to init number sequence")
		}
	} else if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to load number sequence")
	}

	for attempt := 0; attempt < 100; attempt++ {
		seq.SequenceLastValue++
		number := fmt.Sprintf("%s-%s-%03d", category.CategoryCode, pType.PolicyTypeCode, seq.SequenceLastValue)
		taken, err := policyNumberTaken(tx, number, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			if err := tx.Model(&policyModel.PolicyNumberSequenceModel{}).
				Where("sequence_category_id = ? AND sequence_policy_type_id = ?", seq.SequenceCategoryID, seq.SequencePolicyTypeID).
				Update("sequence_last_value", seq.SequenceLastValue).Error; err != nil {
				return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to advance number sequence")
			}
			return number, nil
		}
	}
	return "", fiber.NewError(fiber.StatusConflict, "Could not allocate a free policy number")
}

// policyNumberTaken checks uniqueness among non-deleted policies only; a
// soft-deleted policy does not block its number (restore re-validates).
func policyNumberTaken(tx *gorm.DB, number string, excludeID uuid.UUID) (bool, error) {
	var cnt int64
	q := tx.Model(&policyModel.PolicyModel{}).
		Where("policy_number = ? AND policy_deleted_at IS NULL", number)
	if excludeID != uuid.Nil {
		q = q.Where("policy_id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, fiber.NewError(fiber.StatusInternalServerError, "Failed to check policy number")
	}
	return cnt > 0, nil
}

func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
