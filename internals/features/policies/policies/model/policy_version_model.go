package model

import (
	"time"

	"github.com/google/uuid"
)

// PolicyVersionModel is one row of a policy's immutable revision history.
// Rows are only ever appended; nothing updates or deletes them, even when the
// policy itself is soft-deleted.
type PolicyVersionModel struct {
	PolicyVersionID            uint      `json:"policy_version_id" gorm:"column:policy_version_id;primaryKey;autoIncrement"`
	PolicyVersionPolicyID      uuid.UUID `json:"policy_version_policy_id" gorm:"column:policy_version_policy_id;type:uuid;not null;index"`
	PolicyVersionNumber        int       `json:"policy_version_number" gorm:"column:policy_version_number;not null"`
	PolicyVersionChangeSummary string    `json:"policy_version_change_summary" gorm:"column:policy_version_change_summary"`
	PolicyVersionUploadedBy    string    `json:"policy_version_uploaded_by" gorm:"column:policy_version_uploaded_by;size:50;not null"`
	PolicyVersionFileURL       string    `json:"policy_version_file_url" gorm:"column:policy_version_file_url;not null"`
	PolicyVersionFileName      string    `json:"policy_version_file_name" gorm:"column:policy_version_file_name;not null"`
	CreatedAt                  time.Time `json:"created_at" gorm:"column:created_at"`
}

func (PolicyVersionModel) TableName() string {
	return "policy_versions"
}
