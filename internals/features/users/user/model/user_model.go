package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"policyhub_backend/internals/constants"
)

// UserModel represents the users table.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null" json:"username" validate:"required,min=3,max=50"`
	Email        string    `gorm:"size:255;not null" json:"email" validate:"required,email"`
	FullName     string    `gorm:"size:120;not null" json:"full_name" validate:"required,min=1,max=120"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// approval workflow axes: approval, suspension and soft-delete are
	// independent; all three must be clear before a login is accepted
	IsApproved  bool `gorm:"not null;default:false" json:"is_approved"`
	IsActive    bool `gorm:"not null" json:"is_active"`
	IsSuspended bool `gorm:"not null;default:false" json:"is_suspended"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = constants.RoleUser
	}
	return nil
}

// CanAuthenticate is the single login predicate: a deleted user is always
// excluded, then suspension, approval and the active flag each block access.
func (u *UserModel) CanAuthenticate() bool {
	if u.DeletedAt.Valid {
		return false
	}
	return u.IsApproved && u.IsActive && !u.IsSuspended
}
