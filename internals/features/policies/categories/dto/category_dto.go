package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	m "policyhub_backend/internals/features/policies/categories/model"
)

/* =========================================================
   CREATE
   ========================================================= */

type CreateCategoryRequest struct {
	Name        string  `json:"category_name" form:"category_name" validate:"required,min=1,max=120"`
	Code        string  `json:"category_code" form:"category_code" validate:"required,min=1,max=20"`
	Description *string `json:"category_description" form:"category_description"`
}

func (r *CreateCategoryRequest) Normalize() {
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

func (r CreateCategoryRequest) ToModel() m.CategoryModel {
	return m.CategoryModel{
		CategoryName:        r.Name,
		CategoryCode:        r.Code,
		CategoryDescription: r.Description,
	}
}

/* =========================================================
   UPDATE (partial)
   ========================================================= */

type UpdateCategoryRequest struct {
	Name        *string `json:"category_name" form:"category_name" validate:"omitempty,min=1,max=120"`
	Code        *string `json:"category_code" form:"category_code" validate:"omitempty,min=1,max=20"`
	Description *string `json:"category_description" form:"category_description"`
}

func (r *UpdateCategoryRequest) Normalize() {
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

func (r UpdateCategoryRequest) Apply(model *m.CategoryModel) {
	if r.Name != nil {
		model.CategoryName = *r.Name
	}
	if r.Code != nil {
		model.CategoryCode = *r.Code
	}
	if r.Description != nil {
		model.CategoryDescription = r.Description
	}
}

/* =========================================================
   RESPONSE
   ========================================================= */

type CategoryResponse struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"category_name"`
	Code        string    `json:"category_code"`
	Description *string   `json:"category_description,omitempty"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromCategoryModel(model m.CategoryModel) CategoryResponse {
	return CategoryResponse{
		CategoryID:  model.CategoryID,
		Name:        model.CategoryName,
		Code:        model.CategoryCode,
		Description: model.CategoryDescription,
		IsDeleted:   model.CategoryDeletedAt.Valid,
		CreatedAt:   model.CategoryCreatedAt,
		UpdatedAt:   model.CategoryUpdatedAt,
	}
}

func FromCategoryModels(models []m.CategoryModel) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(models))
	for _, model := range models {
		out = append(out, FromCategoryModel(model))
	}
	return out
}
