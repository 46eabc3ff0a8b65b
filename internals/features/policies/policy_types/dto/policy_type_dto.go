package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	m "policyhub_backend/internals/features/policies/policy_types/model"
)

/* =========================================================
   CREATE
   ========================================================= */

type CreatePolicyTypeRequest struct {
	Name        string  `json:"policy_type_name" form:"policy_type_name" validate:"required,min=1,max=120"`
	Code        string  `json:"policy_type_code" form:"policy_type_code" validate:"required,min=1,max=20"`
	Description *string `json:"policy_type_description" form:"policy_type_description"`
	IsActive    *bool   `json:"policy_type_is_active" form:"policy_type_is_active"`
}

func (r *CreatePolicyTypeRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			r.Description = &d
		}
	}
}

func (r CreatePolicyTypeRequest) ToModel() m.PolicyTypeModel {
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return m.PolicyTypeModel{
		PolicyTypeName:        r.Name,
		PolicyTypeCode:        r.Code,
		PolicyTypeDescription: r.Description,
		PolicyTypeIsActive:    isActive,
	}
}

/* =========================================================
   UPDATE (partial)
   ========================================================= */

type UpdatePolicyTypeRequest struct {
	Name        *string `json:"policy_type_name" form:"policy_type_name" validate:"omitempty,min=1,max=120"`
	Code        *string `json:"policy_type_code" form:"policy_type_code" validate:"omitempty,min=1,max=20"`
	Description *string `json:"policy_type_description" form:"policy_type_description"`
	IsActive    *bool   `json:"policy_type_is_active" form:"policy_type_is_active"`
}

func (r *UpdatePolicyTypeRequest) Normalize() {
	if r.Name != nil {
		s := strings.TrimSpace(*r.Name)
		r.Name = &s
	}
	if r.Code != nil {
		s := strings.ToUpper(strings.TrimSpace(*r.Code))
		r.Code = &s
	}
	if r.Description != nil {
		s := strings.TrimSpace(*r.Description)
		r.Description = &s
	}
}

func (r UpdatePolicyTypeRequest) Apply(model *m.PolicyTypeModel) {
	if r.Name != nil {
		model.PolicyTypeName = *r.Name
	}
	if r.Code != nil {
		model.PolicyTypeCode = *r.Code
	}
	if r.Description != nil {
		model.PolicyTypeDescription = r.Description
	}
	if r.IsActive != nil {
		model.PolicyTypeIsActive = *r.IsActive
	}
}

/* =========================================================
   RESPONSE
   ========================================================= */

type PolicyTypeResponse struct {
	PolicyTypeID uuid.UUID `json:"policy_type_id"`
	Name         string    `json:"policy_type_name"`
	Code         string    `json:"policy_type_code"`
	Description  *string   `json:"policy_type_description,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromPolicyTypeModel(model m.PolicyTypeModel) PolicyTypeResponse {
	return PolicyTypeResponse{
		PolicyTypeID: model.PolicyTypeID,
		Name:         model.PolicyTypeName,
		Code:         model.PolicyTypeCode,
		Description:  model.PolicyTypeDescription,
		IsActive:     model.PolicyTypeIsActive,
		IsDeleted:    model.PolicyTypeDeletedAt.Valid,
		CreatedAt:    model.PolicyTypeCreatedAt,
		UpdatedAt:    model.PolicyTypeUpdatedAt,
	}
}

func FromPolicyTypeModels(models []m.PolicyTypeModel) []PolicyTypeResponse {
	out := make([]PolicyTypeResponse, 0, len(models))
	for _, model := range models {
		out = append(out, FromPolicyTypeModel(model))
	}
	return out
}
