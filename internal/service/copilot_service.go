package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/events"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/cachestore"
	"github.com/pagpeter/obsidian-extensions/pkg/copilot"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"
)

// ErrNoFilesConfigured is returned by Prepare when neither the request nor
// the configuration names any file.
var ErrNoFilesConfigured = fmt.Errorf("%w: no files to prepare, pass paths or set COPILOT_FILES", copilot.ErrConfiguration)

type ICopilotService interface {
	Preload(ctx context.Context)
	Sync(ctx context.Context, req *dto.CopilotSyncRequest) (*dto.CopilotSyncResponse, error)
	CreateCache(ctx context.Context) (*dto.CopilotCacheResponse, error)
	LoadCache(ctx context.Context, req *dto.CopilotLoadCacheRequest) (*dto.CopilotCacheResponse, error)
	Prepare(ctx context.Context, req *dto.CopilotPrepareRequest) (*dto.CopilotPrepareResponse, error)
	Ask(ctx context.Context, req *dto.CopilotAskRequest) (*dto.CopilotAskResponse, error)
	Status(ctx context.Context) *dto.CopilotStatusResponse
}

// copilotService serialises every call into the single assistant.
type copilotService struct {
	mu        sync.Mutex
	assistant *copilot.Assistant
	memo      cachestore.Store
	events    events.Publisher
	notices   notice.Publisher
	logger    logger.ILogger

	cacheTTL     time.Duration
	defaultFiles []string
}

func NewCopilotService(
	assistant *copilot.Assistant,
	memo cachestore.Store,
	eventPublisher events.Publisher,
	notices notice.Publisher,
	log logger.ILogger,
	cacheTTL time.Duration,
	defaultFiles []string,
) ICopilotService {
	if memo == nil {
		memo = cachestore.NewMemoryStore()
	}
	if notices == nil {
		notices = notice.Discard
	}
	return &copilotService{
		assistant:    assistant,
		memo:         memo,
		events:       eventPublisher,
		notices:      notices,
		logger:       log,
		cacheTTL:     cacheTTL,
		defaultFiles: defaultFiles,
	}
}

func (s *copilotService) Preload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistant.Preload(ctx)
}

func (s *copilotService) Sync(ctx context.Context, req *dto.CopilotSyncRequest) (*dto.CopilotSyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.sync(ctx, req.Paths)
	if err != nil {
		return nil, err
	}
	return &dto.CopilotSyncResponse{Files: files}, nil
}

// sync uploads paths in order and stops at the first failure. Callers hold
// the lock.
func (s *copilotService) sync(ctx context.Context, paths []string) ([]dto.CopilotFileDTO, error) {
	registry := s.assistant.Registry()
	out := make([]dto.CopilotFileDTO, 0, len(paths))

	for _, path := range paths {
		before, had := registry.Get(path)
		file, err := s.assistant.UploadFile(ctx, path)
		if err != nil {
			s.publishNotice(notice.LevelError, "Failed to upload %s: %v", filepath.Base(path), err)
			return nil, err
		}

		entry, _ := registry.Get(path)
		uploaded := !had || before.File.Name != file.Name
		if uploaded {
			s.events.PublishFileUploaded(ctx, path, file.Name, entry.Fingerprint)
			s.publishNotice(notice.LevelInfo, "Uploaded %s", filepath.Base(path))
		}

		out = append(out, dto.CopilotFileDTO{
			Path:        path,
			Name:        file.Name,
			URI:         file.URI,
			MIMEType:    file.MIMEType,
			Fingerprint: entry.Fingerprint,
			Uploaded:    uploaded,
		})
	}
	return out, nil
}

func (s *copilotService) CreateCache(ctx context.Context) (*dto.CopilotCacheResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.createCache(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.assistant.Init(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *copilotService) createCache(ctx context.Context) (*dto.CopilotCacheResponse, error) {
	cached, err := s.assistant.CreateCache(ctx)
	if err != nil {
		return nil, err
	}

	files := len(s.assistant.ActiveFiles())
	key := cachestore.Key(s.assistant.Model(), s.assistant.ActiveFingerprints())
	if err := s.memo.Set(ctx, key, cached.Name, s.cacheTTL); err != nil {
		s.logger.Warn("CopilotService", "Failed to remember cache", map[string]interface{}{"error": err.Error()})
	}

	s.events.PublishCacheReady(ctx, cached.Name, cached.Model, files, false)
	s.publishNotice(notice.LevelSuccess, "Cache ready with %d files", files)
	return toCacheResponse(cached, files, false), nil
}

func (s *copilotService) LoadCache(ctx context.Context, req *dto.CopilotLoadCacheRequest) (*dto.CopilotCacheResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.assistant.LoadCache(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.assistant.Init(ctx); err != nil {
		return nil, err
	}
	return toCacheResponse(cached, len(s.assistant.ActiveFiles()), true), nil
}

// Prepare syncs the files, binds a chat to a cache for exactly that file set
// and reuses a remembered cache when one exists.
func (s *copilotService) Prepare(ctx context.Context, req *dto.CopilotPrepareRequest) (*dto.CopilotPrepareResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := req.Paths
	if len(paths) == 0 {
		paths = s.defaultFiles
	}
	if len(paths) == 0 {
		return nil, ErrNoFilesConfigured
	}

	files, err := s.sync(ctx, paths)
	if err != nil {
		return nil, err
	}

	cache, err := s.reuseCache(ctx)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		if cache, err = s.createCache(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.assistant.Init(ctx); err != nil {
		return nil, err
	}
	return &dto.CopilotPrepareResponse{Files: files, Cache: *cache}, nil
}

// reuseCache loads the remembered cache for the active file set. A miss, a
// memo failure or a stale cache all yield nil without error.
func (s *copilotService) reuseCache(ctx context.Context) (*dto.CopilotCacheResponse, error) {
	key := cachestore.Key(s.assistant.Model(), s.assistant.ActiveFingerprints())
	name, ok, err := s.memo.Get(ctx, key)
	if err != nil {
		s.logger.Warn("CopilotService", "Cache memo lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	cached, err := s.assistant.LoadCache(ctx, name)
	if err != nil {
		s.logger.Warn("CopilotService", "Remembered cache is gone, creating a new one", map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return nil, nil
	}

	files := len(s.assistant.ActiveFiles())
	s.events.PublishCacheReady(ctx, cached.Name, cached.Model, files, true)
	s.publishNotice(notice.LevelSuccess, "Reusing cache with %d files", files)
	return toCacheResponse(cached, files, true), nil
}

func (s *copilotService) Ask(ctx context.Context, req *dto.CopilotAskRequest) (*dto.CopilotAskResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.assistant.Ask(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	return &dto.CopilotAskResponse{Answer: answer}, nil
}

func (s *copilotService) Status(ctx context.Context) *dto.CopilotStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &dto.CopilotStatusResponse{
		Model:      s.assistant.Model(),
		Registered: s.assistant.Registry().Len(),
		Bound:      s.assistant.Bound(),
	}
	fingerprints := s.assistant.ActiveFingerprints()
	for _, f := range s.assistant.ActiveFiles() {
		res.ActiveFiles = append(res.ActiveFiles, dto.CopilotFileDTO{
			Path:        f.DisplayName,
			Name:        f.Name,
			URI:         f.URI,
			MIMEType:    f.MIMEType,
			Fingerprint: fingerprints[f.DisplayName],
		})
	}
	if cached, ok := s.assistant.Cache(); ok {
		res.Cache = cached.Name
	}
	return res
}

func (s *copilotService) publishNotice(level notice.Level, format string, args ...interface{}) {
	if err := s.notices.Publish(notice.New("Copilot", level, format, args...)); err != nil {
		s.logger.Warn("CopilotService", "Failed to publish notice", map[string]interface{}{"error": err.Error()})
	}
}

func toCacheResponse(cached copilot.CachedContent, files int, reused bool) *dto.CopilotCacheResponse {
	res := &dto.CopilotCacheResponse{
		Name:   cached.Name,
		Model:  cached.Model,
		Files:  files,
		Reused: reused,
	}
	if !cached.ExpireTime.IsZero() {
		expire := cached.ExpireTime
		res.ExpireTime = &expire
	}
	return res
}
