package model

import (
	"github.com/google/uuid"
)

// PolicyNumberSequenceModel issues policy numbers per (category, type) pair.
// The counter only moves forward, so a sequence value handed out once is never
// reissued, not even after deletions.
type PolicyNumberSequenceModel struct {
	SequenceCategoryID   uuid.UUID `gorm:"column:sequence_category_id;type:uuid;primaryKey"`
	SequencePolicyTypeID uuid.UUID `gorm:"column:sequence_policy_type_id;type:uuid;primaryKey"`
	SequenceLastValue    int       `gorm:"column:sequence_last_value;not null;default:0"`
}

func (PolicyNumberSequenceModel) TableName() string {
	return "policy_number_sequences"
}
