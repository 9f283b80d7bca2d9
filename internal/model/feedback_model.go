package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SokratesFeedback is one graded submission.
type SokratesFeedback struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Submission string                      `gorm:"type:text;not null" json:"submission"`
	IsValid    bool                        `gorm:"not null;index:idx_sokrates_feedback_valid" json:"is_valid"`
	Summary    string                      `gorm:"type:text" json:"summary"`
	Comments   datatypes.JSON              `gorm:"type:jsonb" json:"comments"`
	Callout    string                      `gorm:"type:text" json:"callout"`
	Progress   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"progress"`
	CreatedAt  time.Time                   `gorm:"not null;index:idx_sokrates_feedback_created" json:"created_at"`
}

func (SokratesFeedback) TableName() string {
	return "sokrates_feedback"
}
