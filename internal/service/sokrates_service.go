package service

import (
	"context"
	"errors"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/events"
	"github.com/pagpeter/obsidian-extensions/internal/mapper"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/internal/repository"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/google/uuid"
)

// ErrNoFeedback is returned when the grading stream ends without a
// feedbackEvent.
var ErrNoFeedback = errors.New("sokrates stream ended without feedback")

type SokratesEvaluator interface {
	Evaluate(ctx context.Context, submission string, handle sokrates.EventHandler) error
}

type ISokratesService interface {
	Evaluate(ctx context.Context, req *dto.SokratesEvaluateRequest) (*dto.SokratesEvaluateResponse, error)
	History(ctx context.Context, limit, offset int) (*dto.SokratesHistoryResponse, error)
}

type sokratesService struct {
	client   SokratesEvaluator
	feedback repository.FeedbackRepository
	mapper   *mapper.FeedbackMapper
	events   events.Publisher
	notices  notice.Publisher
	logger   logger.ILogger
}

func NewSokratesService(
	client SokratesEvaluator,
	feedback repository.FeedbackRepository,
	eventPublisher events.Publisher,
	notices notice.Publisher,
	log logger.ILogger,
) ISokratesService {
	if notices == nil {
		notices = notice.Discard
	}
	return &sokratesService{
		client:   client,
		feedback: feedback,
		mapper:   mapper.NewFeedbackMapper(),
		events:   eventPublisher,
		notices:  notices,
		logger:   log,
	}
}

func (s *sokratesService) Evaluate(ctx context.Context, req *dto.SokratesEvaluateRequest) (*dto.SokratesEvaluateResponse, error) {
	s.notify(notice.LevelInfo, "Asking sokrates...")

	seen := make(map[sokrates.Event]struct{})
	var progress []string
	var feedback *sokrates.Feedback

	err := s.client.Evaluate(ctx, req.Submission, func(ev sokrates.Event) error {
		if _, dup := seen[ev]; dup {
			return nil
		}
		seen[ev] = struct{}{}

		switch ev.Type {
		case sokrates.EventProgress:
			progress = append(progress, ev.Data)
			s.notify(notice.LevelInfo, "Sokrates: %s", ev.Data)
		case sokrates.EventFeedback:
			f, err := sokrates.ParseFeedback(ev.Data)
			if err != nil {
				s.logger.Error("SokratesService", "Failed to parse feedbackEvent", map[string]interface{}{"error": err})
				return nil
			}
			feedback = &f
		default:
			s.logger.Debug("SokratesService", "Ignoring event", map[string]interface{}{"type": ev.Type})
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, sokrates.ErrInvalidToken):
			s.notify(notice.LevelError, "Sokrates: failed to ask (Invalid Token)")
		case errors.Is(err, sokrates.ErrMissingToken):
			s.notify(notice.LevelError, "Sokrates: no token set up")
		default:
			s.notify(notice.LevelError, "Error calling sokrates: %v", err)
		}
		return nil, err
	}
	if feedback == nil {
		s.notify(notice.LevelError, "Sokrates finished without feedback")
		return nil, ErrNoFeedback
	}

	s.logFeedback(*feedback)

	res := &dto.SokratesEvaluateResponse{
		Id:       uuid.New(),
		Feedback: *feedback,
		Callout:  feedback.Callout(),
		Progress: progress,
	}
	s.store(ctx, req.Submission, res)
	s.events.PublishFeedbackReceived(ctx, res.Id, feedback.IsValid, feedback.Summary)

	level := notice.LevelSuccess
	if !feedback.IsValid {
		level = notice.LevelError
	}
	s.notify(level, "Sokrates Feedback received")
	return res, nil
}

func (s *sokratesService) logFeedback(f sokrates.Feedback) {
	details := map[string]interface{}{"summary": f.Summary, "is_valid": f.IsValid, "comments": len(f.Comments)}
	switch {
	case f.Summary == "":
		s.logger.Info("SokratesService", "Feedback received", details)
	case f.ReportsInvalid():
		s.logger.Error("SokratesService", "Invalid feedback received", details)
	default:
		s.logger.Info("SokratesService", "Good feedback received", details)
	}
}

// store keeps the feedback history. Failing to store does not fail the
// evaluation.
func (s *sokratesService) store(ctx context.Context, submission string, res *dto.SokratesEvaluateResponse) {
	if s.feedback == nil {
		return
	}
	record, err := s.mapper.ToModel(submission, res)
	if err != nil {
		s.logger.Warn("SokratesService", "Failed to encode comments", map[string]interface{}{"error": err.Error()})
	}
	if err := s.feedback.Create(ctx, record); err != nil {
		s.logger.Error("SokratesService", "Failed to store feedback", map[string]interface{}{"error": err})
	}
}

func (s *sokratesService) History(ctx context.Context, limit, offset int) (*dto.SokratesHistoryResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	res := &dto.SokratesHistoryResponse{
		Items: []dto.SokratesFeedbackDTO{},
		Page:  offset/limit + 1,
		Limit: limit,
	}
	if s.feedback == nil {
		return res, nil
	}

	items, total, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	res.Total = total
	for i := range items {
		item, err := s.mapper.ToDTO(&items[i])
		if err != nil {
			s.logger.Warn("SokratesService", "Stored comments are unreadable", map[string]interface{}{"id": items[i].ID})
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (s *sokratesService) notify(level notice.Level, format string, args ...interface{}) {
	if err := s.notices.Publish(notice.New("Sokrates", level, format, args...)); err != nil {
		s.logger.Warn("SokratesService", "Failed to publish notice", map[string]interface{}{"error": err.Error()})
	}
}
