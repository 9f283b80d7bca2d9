package copilot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/filehash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	files  *fakeFileStore
	caches *fakeCacheService
	chats  *fakeChatService
	a      *Assistant
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		files:  newFakeFileStore(),
		caches: &fakeCacheService{},
		chats:  &fakeChatService{},
		dir:    t.TempDir(),
	}
	h.a = NewAssistant(h.files, h.caches, h.chats, logger.NewNopLogger(), Options{
		Model:    "gemini-test",
		CacheTTL: 30 * time.Minute,
	})
	return h
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUploadFileTwiceUploadsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.write(t, "notes/a.md", "# Ethik\n")

	first, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)
	second, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)

	assert.Len(t, h.files.uploads, 1)
	assert.Empty(t, h.files.deletes)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, path, second.DisplayName)
	assert.Len(t, h.a.ActiveFiles(), 1)
}

func TestUploadFileUsesLabelAndMIMEType(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "notes/a.md", "hello")

	file, err := h.a.UploadFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, h.files.uploads, 1)
	assert.Equal(t, path+":2cf24dba", h.files.uploads[0].DisplayName)
	assert.Equal(t, filehash.MIMETypeMarkdown, h.files.uploads[0].MIMEType)
	assert.Equal(t, []byte("hello"), h.files.uploaded[file.Name])

	// The active copy carries the plain logical path.
	assert.Equal(t, path, file.DisplayName)
	entry, ok := h.a.Registry().Get(path)
	require.True(t, ok)
	assert.Equal(t, "2cf24dba", entry.Fingerprint)
}

func TestUploadFileChangedContentReplacesRemote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.write(t, "notes/a.md", "v1")

	old, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)

	h.write(t, "notes/a.md", "v2")
	fresh, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, []string{old.Name}, h.files.deletes)
	assert.Len(t, h.files.uploads, 2)
	assert.NotEqual(t, old.Name, fresh.Name)

	entry, ok := h.a.Registry().Get(path)
	require.True(t, ok)
	assert.Equal(t, filehash.Fingerprint([]byte("v2")), entry.Fingerprint)
	assert.Equal(t, fresh.Name, entry.File.Name)

	active := h.a.ActiveFiles()
	require.Len(t, active, 1)
	assert.Equal(t, fresh.Name, active[0].Name)
}

func TestUploadFileDeleteFailureIsTolerated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.write(t, "a.md", "v1")
	_, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)

	h.files.deleteErr = errors.New("permission denied")
	h.write(t, "a.md", "v2")

	_, err = h.a.UploadFile(ctx, path)
	require.NoError(t, err)
	assert.Len(t, h.files.deletes, 1)
	assert.Len(t, h.files.uploads, 2)
}

func TestUploadFileReusesPreloadedEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.write(t, "notes/a.md", "hello")

	h.files.pages = []FilePage{{Files: []RemoteFile{
		{Name: "files/remote", DisplayName: FormatDisplayName(path, "2cf24dba"), URI: "https://example.test/remote"},
	}}}
	h.a.Preload(ctx)

	file, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, h.files.uploads)
	assert.Equal(t, "files/remote", file.Name)
	assert.Equal(t, path, file.DisplayName)
}

func TestPreloadSwallowsListingErrors(t *testing.T) {
	h := newHarness(t)
	h.files.listErrAt = 0

	assert.NotPanics(t, func() { h.a.Preload(context.Background()) })
	assert.Equal(t, 0, h.a.Registry().Len())
}

func TestUploadFileSurfacesUploadError(t *testing.T) {
	h := newHarness(t)
	h.files.uploadErr = errors.New("quota exceeded")
	path := h.write(t, "a.md", "x")

	_, err := h.a.UploadFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, h.a.ActiveFiles())
	_, ok := h.a.Registry().Get(path)
	assert.False(t, ok)
}

func TestUploadFileFailedReuploadLeavesSessionSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.write(t, "a.md", "v1")
	old, err := h.a.UploadFile(ctx, path)
	require.NoError(t, err)

	h.write(t, "a.md", "v2")
	h.files.uploadErr = errors.New("quota exceeded")
	_, err = h.a.UploadFile(ctx, path)
	require.Error(t, err)

	assert.Equal(t, []string{old.Name}, h.files.deletes)
	assert.Empty(t, h.a.ActiveFiles())
	assert.Empty(t, h.a.ActiveFingerprints())

	_, err = h.a.CreateCache(ctx)
	assert.ErrorIs(t, err, ErrNothingToCache)
	assert.Empty(t, h.caches.creates)
}

func TestUploadFileMissingLocalFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.a.UploadFile(context.Background(), filepath.Join(h.dir, "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, h.files.uploads)
}

func TestSyncFilesStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	a := h.write(t, "a.md", "a")
	missing := filepath.Join(h.dir, "missing.md")
	c := h.write(t, "c.md", "c")

	files, err := h.a.SyncFiles(context.Background(), []string{a, missing, c})
	require.Error(t, err)
	assert.Len(t, files, 1)
	assert.Len(t, h.files.uploads, 1)
}

func TestSyncFilesKeepsOrder(t *testing.T) {
	h := newHarness(t)
	b := h.write(t, "b.md", "b")
	a := h.write(t, "a.md", "a")

	_, err := h.a.SyncFiles(context.Background(), []string{b, a, b})
	require.NoError(t, err)

	active := h.a.ActiveFiles()
	require.Len(t, active, 2)
	assert.Equal(t, b, active[0].DisplayName)
	assert.Equal(t, a, active[1].DisplayName)
	assert.Equal(t, map[string]string{
		a: filehash.Fingerprint([]byte("a")),
		b: filehash.Fingerprint([]byte("b")),
	}, h.a.ActiveFingerprints())
}

func TestCreateCacheWithoutFiles(t *testing.T) {
	h := newHarness(t)

	_, err := h.a.CreateCache(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrNothingToCache)
	assert.Empty(t, h.caches.creates)
}

func TestCreateCacheBundlesActiveFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.a.SyncFiles(ctx, []string{h.write(t, "a.md", "a"), h.write(t, "b.pdf", "%PDF-1.4")})
	require.NoError(t, err)

	cached, err := h.a.CreateCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cachedContents/c1", cached.Name)

	require.Len(t, h.caches.creates, 1)
	req := h.caches.creates[0]
	assert.Equal(t, DefaultSystemPrompt, req.SystemInstruction)
	assert.Equal(t, 30*time.Minute, req.TTL)
	require.Len(t, req.Files, 2)
	assert.Equal(t, filehash.MIMETypeMarkdown, req.Files[0].MIMEType)
	assert.Equal(t, filehash.MIMETypePDF, req.Files[1].MIMEType)

	current, ok := h.a.Cache()
	require.True(t, ok)
	assert.Equal(t, cached, current)
}

func TestCreateCacheFailurePropagates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.a.UploadFile(ctx, h.write(t, "a.md", "a"))
	require.NoError(t, err)
	h.caches.createErr = errors.New("model does not support caching")

	_, err = h.a.CreateCache(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfiguration)
	_, ok := h.a.Cache()
	assert.False(t, ok)
	assert.Len(t, h.caches.creates, 1)
}

func TestLoadCache(t *testing.T) {
	h := newHarness(t)

	cached, err := h.a.LoadCache(context.Background(), "cachedContents/known")
	require.NoError(t, err)
	assert.Equal(t, "cachedContents/known", cached.Name)
	assert.Equal(t, []string{"cachedContents/known"}, h.caches.gets)

	_, err = h.a.LoadCache(context.Background(), " ")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Len(t, h.caches.gets, 1)
}

func TestInitRequiresCache(t *testing.T) {
	h := newHarness(t)

	err := h.a.Init(context.Background())
	assert.ErrorIs(t, err, ErrNoCache)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, h.chats.started)
}

func TestAskBeforeInit(t *testing.T) {
	h := newHarness(t)

	_, err := h.a.Ask(context.Background(), "Was ist Ethik?")
	assert.ErrorIs(t, err, ErrChatNotInitialized)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, h.chats.started)
}

func bound(t *testing.T, h *harness, session *fakeSession) {
	t.Helper()
	h.chats.session = session
	_, err := h.a.LoadCache(context.Background(), "cachedContents/known")
	require.NoError(t, err)
	require.NoError(t, h.a.Init(context.Background()))
}

func TestAskConcatenatesFragments(t *testing.T) {
	h := newHarness(t)
	session := &fakeSession{fragments: []string{"Hel", "lo, ", "world!"}, failAfter: -1}
	bound(t, h, session)

	answer, err := h.a.Ask(context.Background(), "greet me")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", answer)
	assert.Equal(t, []string{"greet me"}, session.messages)

	require.Len(t, h.chats.started, 1)
	cfg := h.chats.started[0]
	assert.Equal(t, "gemini-test", cfg.Model)
	assert.Equal(t, "cachedContents/known", cfg.Cache.Name)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemInstruction)
}

func TestAskStreamErrorDiscardsPartialAnswer(t *testing.T) {
	h := newHarness(t)
	bound(t, h, &fakeSession{fragments: []string{"Hel", "lo"}, failAfter: 1})

	answer, err := h.a.Ask(context.Background(), "greet me")
	require.Error(t, err)
	assert.Empty(t, answer)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	h := newHarness(t)
	session := &fakeSession{failAfter: -1}
	bound(t, h, session)

	_, err := h.a.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, session.messages)
}

func TestInitStartFailure(t *testing.T) {
	h := newHarness(t)
	h.chats.startErr = errors.New("unknown model")
	_, err := h.a.LoadCache(context.Background(), "cachedContents/known")
	require.NoError(t, err)

	require.Error(t, h.a.Init(context.Background()))
	assert.False(t, h.a.Bound())
}
