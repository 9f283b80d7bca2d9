package dto

import (
	"time"

	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/google/uuid"
)

type SokratesEvaluateRequest struct {
	Submission string `json:"submission" validate:"required"`
}

type SokratesEvaluateResponse struct {
	Id       uuid.UUID         `json:"id"`
	Feedback sokrates.Feedback `json:"feedback"`
	Callout  string            `json:"callout"`
	Progress []string          `json:"progress"`
}

type SokratesFeedbackDTO struct {
	Id         uuid.UUID          `json:"id"`
	Submission string             `json:"submission"`
	IsValid    bool               `json:"is_valid"`
	Summary    string             `json:"summary"`
	Comments   []sokrates.Comment `json:"comments"`
	Callout    string             `json:"callout"`
	CreatedAt  time.Time          `json:"created_at"`
}

type SokratesHistoryResponse struct {
	Items []SokratesFeedbackDTO `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
