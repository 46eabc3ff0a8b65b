// internals/features/users/auth/service/auth_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"policyhub_backend/internals/configs"
	authDTO "policyhub_backend/internals/features/users/auth/dto"
	userDTO "policyhub_backend/internals/features/users/user/dto"
	userModel "policyhub_backend/internals/features/users/user/model"
)

var validate = validator.New()

const tokenTTL = 24 * time.Hour

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

/* =========================================================
   REGISTER — account starts unapproved; an admin must
   approve it before the first login succeeds
   ========================================================= */

func (s *AuthService) Register(ctx context.Context, req authDTO.RegisterRequest) (userModel.UserModel, error) {
	var out userModel.UserModel

	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return out, fiber.NewError(fiber.StatusInternalServerError, "Failed to hash password")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := identityTaken(tx, req.Username, req.Email, nil)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusConflict, "Username or email already registered")
		}

		u := userModel.UserModel{
			Username:     req.Username,
			Email:        req.Email,
			FullName:     req.FullName,
			PasswordHash: string(hash),
			IsApproved:   false,
			IsActive:     true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create user")
		}
		out = u
		return nil
	})
	return out, err
}

/* =========================================================
   LOGIN
   ========================================================= */

func (s *AuthService) Login(ctx context.Context, req authDTO.LoginRequest) (authDTO.LoginResponse, error) {
	var out authDTO.LoginResponse

	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return out, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var u userModel.UserModel
	err := s.DB.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", req.Username, req.Username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return out, fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return out, fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	// the account state gates login even with a correct password: pending
	// approval, suspension, deactivation and soft-delete all block here
	if !u.CanAuthenticate() {
		return out, fiber.NewError(fiber.StatusForbidden, "Account is not approved or has been disabled")
	}

	token, expiresIn, err := IssueToken(u)
	if err != nil {
		return out, err
	}

	out = authDTO.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        userDTO.FromUserModel(u),
	}
	return out, nil
}

// IssueToken signs an HS256 bearer token carrying the identity claims the
// auth middleware expects.
func IssueToken(u userModel.UserModel) (string, int64, error) {
	secret := configs.JWTSecret
	if secret == "" {
		return "", 0, fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   u.ID.String(),
		"user_name": u.Username,
		"role":      u.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", 0, fiber.NewError(fiber.StatusInternalServerError, "Failed to sign token")
	}
	return token, int64(tokenTTL.Seconds()), nil
}

// identityTaken reports whether username or email is already used by a live
// account. excludeID is set when re-validating during restore.
func identityTaken(tx *gorm.DB, username, email string, excludeID *string) (bool, error) {
	q := tx.Model(&userModel.UserModel{}).
		Where("LOWER(username) = ? OR LOWER(email) = ?", username, email)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fiber.NewError(fiber.StatusInternalServerError, "Failed to check identity uniqueness")
	}
	return count > 0, nil
}

// IdentityTaken is the exported form used by the admin restore flow.
func IdentityTaken(tx *gorm.DB, username, email string, excludeID string) (bool, error) {
	return identityTaken(tx, username, email, &excludeID)
}
