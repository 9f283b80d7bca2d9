package repository

import (
	"context"

	"github.com/pagpeter/obsidian-extensions/internal/model"
)

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.SokratesFeedback) error
	// List returns the newest feedback first and the total count.
	List(ctx context.Context, limit, offset int) ([]model.SokratesFeedback, int64, error)
}
