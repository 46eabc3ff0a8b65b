package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PolicyTypeModel mirrors the category lifecycle plus an independent active
// toggle. Inactive types are hidden from new-upload pickers while existing
// policies keep their reference.
type PolicyTypeModel struct {
	PolicyTypeID          uuid.UUID      `json:"policy_type_id" gorm:"column:policy_type_id;type:uuid;primaryKey"`
	PolicyTypeName        string         `json:"policy_type_name" gorm:"column:policy_type_name;size:120;not null"`
	PolicyTypeCode        string         `json:"policy_type_code" gorm:"column:policy_type_code;size:20;not null"`
	PolicyTypeDescription *string        `json:"policy_type_description,omitempty" gorm:"column:policy_type_description"`
	PolicyTypeIsActive    bool           `json:"policy_type_is_active" gorm:"column:policy_type_is_active;not null"`
	PolicyTypeCreatedAt   time.Time      `json:"created_at" gorm:"column:policy_type_created_at;autoCreateTime"`
	PolicyTypeUpdatedAt   time.Time      `json:"updated_at" gorm:"column:policy_type_updated_at;autoUpdateTime"`
	PolicyTypeDeletedAt   gorm.DeletedAt `json:"-" gorm:"column:policy_type_deleted_at;index"`
}

func (PolicyTypeModel) TableName() string {
	return "policy_types"
}

func (m *PolicyTypeModel) BeforeCreate(tx *gorm.DB) error {
	if m.PolicyTypeID == uuid.Nil {
		m.PolicyTypeID = uuid.New()
	}
	return nil
}
