// internals/features/users/user/dto/user_dto.go
package dto

import (
	"time"

	userModel "policyhub_backend/internals/features/users/user/model"
)

/* ===============================
   Requests
=================================*/

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ListUserQuery struct {
	Q           string `query:"q"`
	Role        string `query:"role"`
	Pending     *bool  `query:"pending"` // only users awaiting approval
	WithDeleted *bool  `query:"with_deleted"`
}

/* ===============================
   Responses
=================================*/

type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	IsApproved  bool      `json:"is_approved"`
	IsActive    bool      `json:"is_active"`
	IsSuspended bool      `json:"is_suspended"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromUserModel(m userModel.UserModel) UserResponse {
	return UserResponse{
		ID:          m.ID.String(),
		Username:    m.Username,
		Email:       m.Email,
		FullName:    m.FullName,
		Role:        m.Role,
		IsApproved:  m.IsApproved,
		IsActive:    m.IsActive,
		IsSuspended: m.IsSuspended,
		IsDeleted:   m.DeletedAt.Valid,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromUserModels(ms []userModel.UserModel) []UserResponse {
	out := make([]UserResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromUserModel(m))
	}
	return out
}
