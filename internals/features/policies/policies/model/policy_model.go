package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stored status values. "deleted" is never stored: it is projected at read
// time from the soft-delete marker.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

func IsValidStoredStatus(s string) bool {
	return s == StatusActive || s == StatusArchived
}

// PolicyModel is the head record of a policy document. The version column is
// the optimistic-concurrency token for document replacement.
type PolicyModel struct {
	PolicyID              uuid.UUID      `json:"policy_id" gorm:"column:policy_id;type:uuid;primaryKey"`
	PolicyNumber          string         `json:"policy_number" gorm:"column:policy_number;size:60;not null"`
	PolicyTitle           string         `json:"policy_title" gorm:"column:policy_title;size:200;not null"`
	PolicyCategoryID      uuid.UUID      `json:"policy_category_id" gorm:"column:policy_category_id;type:uuid;not null"`
	PolicyTypeID          uuid.UUID      `json:"policy_type_id" gorm:"column:policy_type_id;type:uuid;not null"`
	PolicyOwnerDepartment string         `json:"policy_owner_department" gorm:"column:policy_owner_department;size:120;not null"`
	PolicyDateIssued      time.Time      `json:"policy_date_issued" gorm:"column:policy_date_issued;not null"`
	PolicyStatus          string         `json:"policy_status" gorm:"column:policy_status;type:varchar(20);not null;default:'active'"`
	PolicyIsVisibleToUsers bool          `json:"policy_is_visible_to_users" gorm:"column:policy_is_visible_to_users;not null"`
	PolicyVersion         int            `json:"policy_version" gorm:"column:policy_version;not null;default:1"`
	PolicyFileURL         string         `json:"policy_file_url" gorm:"column:policy_file_url;not null"`
	PolicyFileName        string         `json:"policy_file_name" gorm:"column:policy_file_name;not null"`
	PolicyCreatedBy       string         `json:"policy_created_by" gorm:"column:policy_created_by;size:50;not null"`
	PolicyCreatedAt       time.Time      `json:"created_at" gorm:"column:policy_created_at;autoCreateTime"`
	PolicyUpdatedAt       time.Time      `json:"updated_at" gorm:"column:policy_updated_at;autoUpdateTime"`
	PolicyDeletedAt       gorm.DeletedAt `json:"-" gorm:"column:policy_deleted_at;index"`
}

func (PolicyModel) TableName() string {
	return "policies"
}

func (m *PolicyModel) BeforeCreate(tx *gorm.DB) error {
	if m.PolicyID == uuid.Nil {
		m.PolicyID = uuid.New()
	}
	if m.PolicyStatus == "" {
		m.PolicyStatus = StatusActive
	}
	if m.PolicyVersion == 0 {
		m.PolicyVersion = 1
	}
	return nil
}

// EffectiveStatus projects the soft-delete marker over the stored status so
// the two can never drift apart.
func (m *PolicyModel) EffectiveStatus() string {
	if m.PolicyDeletedAt.Valid {
		return StatusDeleted
	}
	return m.PolicyStatus
}
