package implementation

import (
	"context"

	"github.com/pagpeter/obsidian-extensions/internal/model"
	"github.com/pagpeter/obsidian-extensions/internal/repository"
	"github.com/pagpeter/obsidian-extensions/internal/repository/scope"

	"gorm.io/gorm"
)

type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) repository.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(ctx context.Context, feedback *model.SokratesFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) List(ctx context.Context, limit, offset int) ([]model.SokratesFeedback, int64, error) {
	var items []model.SokratesFeedback
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SokratesFeedback{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Scopes(scope.OrderByCreatedDesc, scope.Paginate(limit, offset)).
		Find(&items).Error

	return items, total, err
}
