package copilot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/filehash"
)

const logModule = "Copilot"

// DefaultSystemPrompt is sent once with the cache and again when binding a chat.
const DefaultSystemPrompt = `You are a copilot in a markdown reader.
You are able to output LaTeX, mermaid.js diagrams and Markdown. Give short, concise answers.
When using Markdown lists, always start them with a "-" instead of with an "*".
Use markdown lists and callouts extensively.
Always answer in german.`

const DefaultPageSize = 50

type Options struct {
	Model        string
	SystemPrompt string
	PageSize     int
	CacheTTL     time.Duration
}

// Assistant syncs vault files, builds the context cache and serves
// question/answer turns. It is not safe for concurrent use; callers issue one
// operation at a time.
type Assistant struct {
	files  FileStore
	caches CacheService
	chats  ChatService
	logger logger.ILogger

	model        string
	systemPrompt string
	pageSize     int
	cacheTTL     time.Duration

	registry *Registry

	// Files active this session, in order of first sync.
	activeOrder []string
	active      map[string]RemoteFile

	cache   *CachedContent
	session ChatSession
}

func NewAssistant(files FileStore, caches CacheService, chats ChatService, log logger.ILogger, opts Options) *Assistant {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Assistant{
		files:        files,
		caches:       caches,
		chats:        chats,
		logger:       log,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		pageSize:     opts.PageSize,
		cacheTTL:     opts.CacheTTL,
		registry:     NewRegistry(),
		active:       make(map[string]RemoteFile),
	}
}

// Preload warms the registry from the remote listing. Listing failures are
// logged and leave the registry partially populated.
func (a *Assistant) Preload(ctx context.Context) {
	loaded, err := a.registry.Load(ctx, a.files, a.pageSize)
	if err != nil {
		a.logger.Warn(logModule, "Failed to load uploaded files", map[string]interface{}{
			"error":  err.Error(),
			"loaded": loaded,
		})
		return
	}
	a.logger.Info(logModule, "Loaded previously uploaded files", map[string]interface{}{"count": loaded})
}

// UploadFile makes the current content of path available remotely, uploading
// only when the registry has no entry with the same fingerprint.
func (a *Assistant) UploadFile(ctx context.Context, path string) (RemoteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := filehash.MIMEType(path, data)
	fingerprint := filehash.Fingerprint(data)

	if existing, ok := a.registry.Get(path); ok {
		if existing.Fingerprint == fingerprint {
			a.logger.Debug(logModule, "File already uploaded with same hash, reusing", map[string]interface{}{
				"path": path,
				"name": existing.File.Name,
			})
			file := existing.File
			file.DisplayName = path
			a.markActive(path, file)
			return file, nil
		}

		a.logger.Info(logModule, "File changed, deleting old version", map[string]interface{}{
			"path":    path,
			"name":    existing.File.Name,
			"old":     existing.Fingerprint,
			"current": fingerprint,
		})
		if err := a.files.Delete(ctx, existing.File.Name); err != nil {
			a.logger.Warn(logModule, "Failed to delete old file", map[string]interface{}{
				"name":  existing.File.Name,
				"error": err.Error(),
			})
		}
		a.registry.Delete(path)
		a.unmarkActive(path)
	}

	uploaded, err := a.files.Upload(ctx, bytes.NewReader(data), FormatDisplayName(path, fingerprint), mimeType)
	if err != nil {
		a.logger.Error(logModule, "Failed to upload file", map[string]interface{}{"path": path, "error": err})
		return RemoteFile{}, fmt.Errorf("upload %s: %w", path, err)
	}
	a.logger.Info(logModule, "File uploaded", map[string]interface{}{"path": path, "name": uploaded.Name})

	uploaded.DisplayName = path
	a.registry.Set(path, Entry{File: uploaded, Fingerprint: fingerprint})
	a.markActive(path, uploaded)
	return uploaded, nil
}

// SyncFiles uploads paths one at a time, in order, and stops at the first
// failure.
func (a *Assistant) SyncFiles(ctx context.Context, paths []string) ([]RemoteFile, error) {
	files := make([]RemoteFile, 0, len(paths))
	for _, path := range paths {
		file, err := a.UploadFile(ctx, path)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (a *Assistant) markActive(path string, file RemoteFile) {
	if _, seen := a.active[path]; !seen {
		a.activeOrder = append(a.activeOrder, path)
	}
	a.active[path] = file
}

// unmarkActive drops path from the session file set. A path whose old remote
// copy is gone must not reach the next cache.
func (a *Assistant) unmarkActive(path string) {
	if _, ok := a.active[path]; !ok {
		return
	}
	delete(a.active, path)
	for i, p := range a.activeOrder {
		if p == path {
			a.activeOrder = append(a.activeOrder[:i], a.activeOrder[i+1:]...)
			break
		}
	}
}

// CreateCache bundles every active file and the system instruction into a new
// provider cache and makes it current.
func (a *Assistant) CreateCache(ctx context.Context) (CachedContent, error) {
	files := a.ActiveFiles()
	if len(files) == 0 {
		return CachedContent{}, ErrNothingToCache
	}

	cached, err := a.caches.Create(ctx, a.model, CacheRequest{
		SystemInstruction: a.systemPrompt,
		Files:             files,
		TTL:               a.cacheTTL,
	})
	if err != nil {
		a.logger.Error(logModule, "Failed to create cache", map[string]interface{}{"error": err})
		return CachedContent{}, fmt.Errorf("create cache: %w", err)
	}

	a.logger.Info(logModule, "Cache created", map[string]interface{}{"name": cached.Name, "files": len(files)})
	a.cache = &cached
	return cached, nil
}

// LoadCache makes a previously created cache current without re-declaring
// the file set.
func (a *Assistant) LoadCache(ctx context.Context, name string) (CachedContent, error) {
	if strings.TrimSpace(name) == "" {
		return CachedContent{}, wrapConfig("cache name is empty")
	}
	cached, err := a.caches.Get(ctx, name)
	if err != nil {
		a.logger.Error(logModule, "Failed to load cache", map[string]interface{}{"name": name, "error": err})
		return CachedContent{}, fmt.Errorf("load cache %s: %w", name, err)
	}

	a.logger.Info(logModule, "Cache loaded", map[string]interface{}{"name": cached.Name})
	a.cache = &cached
	return cached, nil
}

// Init binds a chat session to the current cache.
func (a *Assistant) Init(ctx context.Context) error {
	if a.cache == nil {
		return ErrNoCache
	}

	session, err := a.chats.StartChat(ctx, ChatConfig{
		Model:             a.model,
		SystemInstruction: a.systemPrompt,
		Cache:             *a.cache,
	})
	if err != nil {
		return fmt.Errorf("start chat: %w", err)
	}

	a.session = session
	a.logger.Info(logModule, "Chat initialized", map[string]interface{}{"cache": a.cache.Name, "model": a.model})
	return nil
}

// Ask sends question to the bound session and returns the concatenated
// streamed answer. A stream error discards the partial answer.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	if a.session == nil {
		return "", ErrChatNotInitialized
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	var answer strings.Builder
	for fragment, err := range a.session.SendStream(ctx, question) {
		if err != nil {
			a.logger.Error(logModule, "Failed to get response", map[string]interface{}{"error": err})
			return "", fmt.Errorf("ask: %w", err)
		}
		answer.WriteString(fragment)
	}
	return answer.String(), nil
}

// ActiveFiles returns the files synced this session in order of first sync.
func (a *Assistant) ActiveFiles() []RemoteFile {
	files := make([]RemoteFile, 0, len(a.activeOrder))
	for _, path := range a.activeOrder {
		files = append(files, a.active[path])
	}
	return files
}

// ActiveFingerprints maps each active path to the fingerprint it was synced with.
func (a *Assistant) ActiveFingerprints() map[string]string {
	out := make(map[string]string, len(a.activeOrder))
	for _, path := range a.activeOrder {
		if entry, ok := a.registry.Get(path); ok {
			out[path] = entry.Fingerprint
		}
	}
	return out
}

// Cache returns the current cache handle, if any.
func (a *Assistant) Cache() (CachedContent, bool) {
	if a.cache == nil {
		return CachedContent{}, false
	}
	return *a.cache, true
}

func (a *Assistant) Bound() bool {
	return a.session != nil
}

func (a *Assistant) Model() string {
	return a.model
}

func (a *Assistant) Registry() *Registry {
	return a.registry
}
