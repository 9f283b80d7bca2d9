package memory

import (
	"context"
	"sort"

	"github.com/pagpeter/obsidian-extensions/internal/model"
	"github.com/pagpeter/obsidian-extensions/internal/repository"

	"github.com/patrickmn/go-cache"
)

// FeedbackRepository keeps feedback history for the lifetime of the
// process. It is used when no database is configured.
type FeedbackRepository struct {
	cache *cache.Cache
}

func NewFeedbackRepository() repository.FeedbackRepository {
	return &FeedbackRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *FeedbackRepository) Create(_ context.Context, feedback *model.SokratesFeedback) error {
	r.cache.Set(feedback.ID.String(), *feedback, cache.NoExpiration)
	return nil
}

func (r *FeedbackRepository) List(_ context.Context, limit, offset int) ([]model.SokratesFeedback, int64, error) {
	items := r.cache.Items()
	all := make([]model.SokratesFeedback, 0, len(items))
	for _, item := range items {
		all = append(all, item.Object.(model.SokratesFeedback))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []model.SokratesFeedback{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}
