package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryModel is flat reference data for policies. Deleting a category never
// cascades to policies; the relation is an id soft-link only.
type CategoryModel struct {
	CategoryID          uuid.UUID      `json:"category_id" gorm:"column:category_id;type:uuid;primaryKey"`
	CategoryName        string         `json:"category_name" gorm:"column:category_name;size:120;not null"`
	CategoryCode        string         `json:"category_code" gorm:"column:category_code;size:20;not null"`
	CategoryDescription *string        `json:"category_description,omitempty" gorm:"column:category_description"`
	CategoryCreatedAt   time.Time      `json:"created_at" gorm:"column:category_created_at;autoCreateTime"`
	CategoryUpdatedAt   time.Time      `json:"updated_at" gorm:"column:category_updated_at;autoUpdateTime"`
	CategoryDeletedAt   gorm.DeletedAt `json:"-" gorm:"column:category_deleted_at;index"`
}

func (CategoryModel) TableName() string {
	return "categories"
}

func (m *CategoryModel) BeforeCreate(tx *gorm.DB) error {
	if m.CategoryID == uuid.Nil {
		m.CategoryID = uuid.New()
	}
	return nil
}
