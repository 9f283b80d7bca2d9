package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/pagpeter/obsidian-extensions/pkg/anki"
	"github.com/pagpeter/obsidian-extensions/pkg/copilot"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/google/uuid"
)

type recordedEvent struct {
	kind string
	data map[string]interface{}
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) add(kind string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: kind, data: data})
}

func (f *fakeEvents) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.kind)
	}
	return out
}

func (f *fakeEvents) PublishFileUploaded(ctx context.Context, path, name, fingerprint string) {
	f.add("file_uploaded", map[string]interface{}{"path": path, "name": name, "fingerprint": fingerprint})
}

func (f *fakeEvents) PublishCacheReady(ctx context.Context, cacheName, model string, files int, reused bool) {
	f.add("cache_ready", map[string]interface{}{"cache": cacheName, "files": files, "reused": reused})
}

func (f *fakeEvents) PublishNotesAdded(ctx context.Context, deck string, files, notes int) {
	f.add("notes_added", map[string]interface{}{"deck": deck, "files": files, "notes": notes})
}

func (f *fakeEvents) PublishFeedbackReceived(ctx context.Context, id uuid.UUID, isValid bool, summary string) {
	f.add("feedback_received", map[string]interface{}{"id": id, "is_valid": isValid, "summary": summary})
}

type fakeNotices struct {
	mu      sync.Mutex
	notices []notice.Notice
}

func (f *fakeNotices) Publish(n notice.Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeNotices) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.notices))
	for _, n := range f.notices {
		out = append(out, n.Message)
	}
	return out
}

func (f *fakeNotices) last() notice.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notices[len(f.notices)-1]
}

// Copilot provider fakes.

type fakeFiles struct {
	listed  []copilot.RemoteFile
	uploads int
	failFor string
}

func (f *fakeFiles) ListPage(ctx context.Context, pageSize int, pageToken string) (copilot.FilePage, error) {
	return copilot.FilePage{Files: f.listed}, nil
}

func (f *fakeFiles) Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (copilot.RemoteFile, error) {
	if _, err := io.ReadAll(r); err != nil {
		return copilot.RemoteFile{}, err
	}
	if f.failFor != "" && len(displayName) >= len(f.failFor) && displayName[:len(f.failFor)] == f.failFor {
		return copilot.RemoteFile{}, errors.New("quota exceeded")
	}
	f.uploads++
	return copilot.RemoteFile{
		Name:        fmt.Sprintf("files/f%d", f.uploads),
		DisplayName: displayName,
		URI:         fmt.Sprintf("https://example.test/files/f%d", f.uploads),
		MIMEType:    mimeType,
	}, nil
}

func (f *fakeFiles) Delete(ctx context.Context, name string) error { return nil }

type fakeCaches struct {
	creates int
	gets    []string
	missing map[string]bool
}

func (f *fakeCaches) Create(ctx context.Context, model string, req copilot.CacheRequest) (copilot.CachedContent, error) {
	f.creates++
	return copilot.CachedContent{
		Name:       fmt.Sprintf("cachedContents/c%d", f.creates),
		Model:      model,
		ExpireTime: time.Now().Add(req.TTL),
	}, nil
}

func (f *fakeCaches) Get(ctx context.Context, name string) (copilot.CachedContent, error) {
	f.gets = append(f.gets, name)
	if f.missing[name] {
		return copilot.CachedContent{}, errors.New("cached content not found")
	}
	return copilot.CachedContent{Name: name, Model: "gemini-test"}, nil
}

type fakeChats struct {
	started   []copilot.ChatConfig
	fragments []string
}

func (f *fakeChats) StartChat(ctx context.Context, cfg copilot.ChatConfig) (copilot.ChatSession, error) {
	f.started = append(f.started, cfg)
	return fakeChat{fragments: f.fragments}, nil
}

type fakeChat struct{ fragments []string }

func (c fakeChat) SendStream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, fragment := range c.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// Anki fake.

type fakeAnki struct {
	decks    []string
	notes    []anki.Note
	addErr   error
	deckErr  error
	accepted int
}

func (f *fakeAnki) CreateDeck(ctx context.Context, name string) (int64, error) {
	f.decks = append(f.decks, name)
	if f.deckErr != nil {
		return 0, f.deckErr
	}
	return 1, nil
}

func (f *fakeAnki) AddNotes(ctx context.Context, notes []anki.Note) ([]int64, error) {
	f.notes = append(f.notes, notes...)
	n := len(notes)
	if f.addErr != nil {
		n = f.accepted
	}
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	return ids, f.addErr
}

// Sokrates fake.

type fakeEvaluator struct {
	events []sokrates.Event
	err    error
	got    string
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, submission string, handle sokrates.EventHandler) error {
	f.got = submission
	for _, ev := range f.events {
		if err := handle(ev); err != nil {
			return err
		}
	}
	return f.err
}
