// internals/features/users/auth/dto/auth_dto.go
package dto

import (
	"strings"

	userDTO "policyhub_backend/internals/features/users/user/dto"
)

/* ===============================
   Requests
=================================*/

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
}

/* ===============================
   Responses
=================================*/

type LoginResponse struct {
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	ExpiresIn   int64                `json:"expires_in"`
	User        userDTO.UserResponse `json:"user"`
}
