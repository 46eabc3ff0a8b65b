package dto

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	m "policyhub_backend/internals/features/policies/policies/model"
)

/* =========================================================
   CREATE (multipart form, file handled by controller)
   ========================================================= */

type CreatePolicyRequest struct {
	Title           string `json:"policy_title" form:"policy_title" validate:"required,min=1,max=200"`
	CategoryID      string `json:"policy_category_id" form:"policy_category_id" validate:"required,uuid4"`
	PolicyTypeID    string `json:"policy_type_id" form:"policy_type_id" validate:"required,uuid4"`
	OwnerDepartment string `json:"policy_owner_department" form:"policy_owner_department" validate:"required,min=1,max=120"`
	DateIssued      string `json:"policy_date_issued" form:"policy_date_issued" validate:"required"`
	PolicyNumber    string `json:"policy_number" form:"policy_number" validate:"omitempty,max=60"`
	ChangeSummary   string `json:"change_summary" form:"change_summary" validate:"omitempty,max=500"`
}

func (r *CreatePolicyRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.OwnerDepartment = strings.TrimSpace(r.OwnerDepartment)
	r.PolicyNumber = strings.ToUpper(strings.TrimSpace(r.PolicyNumber))
	r.ChangeSummary = strings.TrimSpace(r.ChangeSummary)
}

// ParseDateIssued accepts a plain date or a full RFC3339 timestamp.
func ParseDateIssued(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid date format for policy_date_issued")
}

/* =========================================================
   UPDATE metadata (partial)
   ========================================================= */

type UpdatePolicyRequest struct {
	Title           *string `json:"policy_title" form:"policy_title" validate:"omitempty,min=1,max=200"`
	CategoryID      *string `json:"policy_category_id" form:"policy_category_id" validate:"omitempty,uuid4"`
	PolicyTypeID    *string `json:"policy_type_id" form:"policy_type_id" validate:"omitempty,uuid4"`
	OwnerDepartment *string `json:"policy_owner_department" form:"policy_owner_department" validate:"omitempty,min=1,max=120"`
	DateIssued      *string `json:"policy_date_issued" form:"policy_date_issued"`
	Status          *string `json:"policy_status" form:"policy_status" validate:"omitempty,oneof=active archived"`
}

func (r *UpdatePolicyRequest) Normalize() {
	if r.Title != nil {
		s := strings.TrimSpace(*r.Title)
		r.Title = &s
	}
	if r.OwnerDepartment != nil {
		s := strings.TrimSpace(*r.OwnerDepartment)
		r.OwnerDepartment = &s
	}
	if r.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Status))
		r.Status = &s
	}
}

/* =========================================================
   REPLACE DOCUMENT
   ========================================================= */

type ReplaceDocumentRequest struct {
	ChangeSummary   string `json:"change_summary" form:"change_summary" validate:"omitempty,max=500"`
	ExpectedVersion *int   `json:"expected_version" form:"expected_version" validate:"omitempty,min=1"`
}

/* =========================================================
   LIST query
   ========================================================= */

type ListPolicyQuery struct {
	Status         *string `query:"status"`
	CategoryID     *string `query:"category_id"`
	PolicyTypeID   *string `query:"policy_type_id"`
	Q              *string `query:"q"`
	IncludeHidden  *bool   `query:"include_hidden"`
	IncludeDeleted *bool   `query:"include_deleted"`
}

/* =========================================================
   RESPONSES
   ========================================================= */

type PolicyVersionResponse struct {
	VersionNumber int       `json:"version_number"`
	ChangeSummary string    `json:"change_summary"`
	UploadedBy    string    `json:"uploaded_by"`
	FileURL       string    `json:"file_url"`
	FileName      string    `json:"file_name"`
	UploadDate    time.Time `json:"upload_date"`
}

type PolicyResponse struct {
	PolicyID        uuid.UUID `json:"policy_id"`
	PolicyNumber    string    `json:"policy_number"`
	Title           string    `json:"policy_title"`
	CategoryID      uuid.UUID `json:"policy_category_id"`
	PolicyTypeID    uuid.UUID `json:"policy_type_id"`
	OwnerDepartment string    `json:"policy_owner_department"`
	DateIssued      time.Time `json:"policy_date_issued"`
	// Status is the effective status: "deleted" overrides the stored value
	Status           string    `json:"status"`
	IsVisibleToUsers bool      `json:"is_visible_to_users"`
	Version          int       `json:"version"`
	FileURL          string    `json:"file_url"`
	FileName         string    `json:"file_name"`
	IsDeleted        bool      `json:"is_deleted"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type PolicyDetailResponse struct {
	PolicyResponse
	VersionHistory []PolicyVersionResponse `json:"version_history"`
}

func FromPolicyModel(model m.PolicyModel) PolicyResponse {
	return PolicyResponse{
		PolicyID:         model.PolicyID,
		PolicyNumber:     model.PolicyNumber,
		Title:            model.PolicyTitle,
		CategoryID:       model.PolicyCategoryID,
		PolicyTypeID:     model.PolicyTypeID,
		OwnerDepartment:  model.PolicyOwnerDepartment,
		DateIssued:       model.PolicyDateIssued,
		Status:           model.EffectiveStatus(),
		IsVisibleToUsers: model.PolicyIsVisibleToUsers,
		Version:          model.PolicyVersion,
		FileURL:          model.PolicyFileURL,
		FileName:         model.PolicyFileName,
		IsDeleted:        model.PolicyDeletedAt.Valid,
		CreatedBy:        model.PolicyCreatedBy,
		CreatedAt:        model.PolicyCreatedAt,
		UpdatedAt:        model.PolicyUpdatedAt,
	}
}

func FromPolicyModels(models []m.PolicyModel) []PolicyResponse {
	out := make([]PolicyResponse, 0, len(models))
	for _, model := range models {
		out = append(out, FromPolicyModel(model))
	}
	return out
}

func FromPolicyVersionModel(model m.PolicyVersionModel) PolicyVersionResponse {
	return PolicyVersionResponse{
		VersionNumber: model.PolicyVersionNumber,
		ChangeSummary: model.PolicyVersionChangeSummary,
		UploadedBy:    model.PolicyVersionUploadedBy,
		FileURL:       model.PolicyVersionFileURL,
		FileName:      model.PolicyVersionFileName,
		UploadDate:    model.CreatedAt,
	}
}

func FromPolicyDetail(model m.PolicyModel, history []m.PolicyVersionModel) PolicyDetailResponse {
	versions := make([]PolicyVersionResponse, 0, len(history))
	for _, v := range history {
		versions = append(versions, FromPolicyVersionModel(v))
	}
	return PolicyDetailResponse{
		PolicyResponse: FromPolicyModel(model),
		VersionHistory: versions,
	}
}
