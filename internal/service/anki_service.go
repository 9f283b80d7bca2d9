package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/events"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/anki"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"
)

// AnkiNoteAdder is the part of the AnkiConnect client the service needs.
type AnkiNoteAdder interface {
	CreateDeck(ctx context.Context, name string) (int64, error)
	AddNotes(ctx context.Context, notes []anki.Note) ([]int64, error)
}

type IAnkiService interface {
	SyncFolder(ctx context.Context, req *dto.AnkiSyncRequest) (*dto.AnkiSyncResponse, error)
	Preview(ctx context.Context, req *dto.AnkiPreviewRequest) *dto.AnkiPreviewResponse
}

type ankiService struct {
	client    AnkiNoteAdder
	modelName string
	exportTag string
	events    events.Publisher
	notices   notice.Publisher
	logger    logger.ILogger
}

func NewAnkiService(
	client AnkiNoteAdder,
	modelName, exportTag string,
	eventPublisher events.Publisher,
	notices notice.Publisher,
	log logger.ILogger,
) IAnkiService {
	if notices == nil {
		notices = notice.Discard
	}
	return &ankiService{
		client:    client,
		modelName: modelName,
		exportTag: exportTag,
		events:    eventPublisher,
		notices:   notices,
		logger:    log,
	}
}

// SyncFolder exports every card callout found below the folder into the
// deck. Unreadable files are skipped; the first note Anki rejects stops the
// export.
func (s *ankiService) SyncFolder(ctx context.Context, req *dto.AnkiSyncRequest) (*dto.AnkiSyncResponse, error) {
	deck := strings.TrimSpace(req.DeckName)
	if deck == "" {
		return nil, anki.ErrEmptyDeckName
	}

	files, err := anki.MarkdownFiles(req.Folder)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", req.Folder, err)
	}
	if len(files) == 0 {
		s.notify(notice.LevelError, "No markdown files found in the folder")
		return nil, anki.ErrNoMarkdownFiles
	}

	s.notify(notice.LevelInfo, "Processing %d files...", len(files))

	var notes []anki.Note
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("AnkiService", "Failed to process file", map[string]interface{}{
				"path":  path,
				"error": err,
			})
			continue
		}

		cards := anki.ParseCards(string(content))
		s.logger.Debug("AnkiService", "Parsed cards", map[string]interface{}{"path": path, "cards": len(cards)})
		for _, card := range cards {
			notes = append(notes, anki.NewNote(deck, s.modelName, card, s.exportTag, filepath.Base(path)))
		}
	}

	if len(notes) == 0 {
		s.notify(notice.LevelError, "No cards found in any files")
		return nil, anki.ErrNoCards
	}

	s.notify(notice.LevelInfo, "Adding %d cards to Anki...", len(notes))

	if _, err := s.client.CreateDeck(ctx, deck); err != nil {
		s.notify(notice.LevelError, "Failed to add cards to Anki: %v", err)
		return nil, err
	}

	ids, err := s.client.AddNotes(ctx, notes)
	if err != nil {
		s.logger.Error("AnkiService", "Failed to add cards to Anki", map[string]interface{}{
			"deck":  deck,
			"added": len(ids),
			"error": err,
		})
		s.notify(notice.LevelError, "Failed to add cards to Anki: %v", err)
		return nil, err
	}

	s.events.PublishNotesAdded(ctx, deck, len(files), len(ids))
	s.notify(notice.LevelSuccess, "Successfully synced %d Anki cards to deck %q", len(ids), deck)
	s.logger.Info("AnkiService", "Folder synced", map[string]interface{}{
		"folder": req.Folder,
		"deck":   deck,
		"files":  len(files),
		"cards":  len(ids),
	})

	return &dto.AnkiSyncResponse{
		DeckName: deck,
		Files:    len(files),
		Cards:    len(ids),
		NoteIDs:  ids,
	}, nil
}

func (s *ankiService) Preview(ctx context.Context, req *dto.AnkiPreviewRequest) *dto.AnkiPreviewResponse {
	cards := anki.ParseCards(req.Content)
	res := &dto.AnkiPreviewResponse{Cards: make([]dto.AnkiCardDTO, 0, len(cards))}
	for _, c := range cards {
		res.Cards = append(res.Cards, dto.AnkiCardDTO{Question: c.Question, Answer: c.Answer})
	}
	return res
}

func (s *ankiService) notify(level notice.Level, format string, args ...interface{}) {
	if err := s.notices.Publish(notice.New("Anki", level, format, args...)); err != nil {
		s.logger.Warn("AnkiService", "Failed to publish notice", map[string]interface{}{"error": err.Error()})
	}
}
