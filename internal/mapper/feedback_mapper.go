package mapper

import (
	"encoding/json"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/model"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"
)

type FeedbackMapper struct{}

func NewFeedbackMapper() *FeedbackMapper {
	return &FeedbackMapper{}
}

// ToModel builds the stored record. Comments that cannot be encoded are
// stored as an empty list and the encoding error is returned alongside.
func (m *FeedbackMapper) ToModel(submission string, res *dto.SokratesEvaluateResponse) (*model.SokratesFeedback, error) {
	comments, err := json.Marshal(res.Feedback.Comments)
	if err != nil {
		comments = []byte("[]")
	}

	return &model.SokratesFeedback{
		ID:         res.Id,
		Submission: submission,
		IsValid:    res.Feedback.IsValid,
		Summary:    res.Feedback.Summary,
		Comments:   comments,
		Callout:    res.Callout,
		Progress:   res.Progress,
		CreatedAt:  time.Now(),
	}, err
}

// ToDTO always returns the entry; unreadable comments are dropped and the
// decode error is returned.
func (m *FeedbackMapper) ToDTO(f *model.SokratesFeedback) (dto.SokratesFeedbackDTO, error) {
	var (
		comments []sokrates.Comment
		err      error
	)
	if len(f.Comments) > 0 {
		if err = json.Unmarshal(f.Comments, &comments); err != nil {
			comments = nil
		}
	}

	return dto.SokratesFeedbackDTO{
		Id:         f.ID,
		Submission: f.Submission,
		IsValid:    f.IsValid,
		Summary:    f.Summary,
		Comments:   comments,
		Callout:    f.Callout,
		CreatedAt:  f.CreatedAt,
	}, err
}
