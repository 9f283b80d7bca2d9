package copilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
)

type fakeFileStore struct {
	pages     []FilePage
	listErrAt int // page index that fails, -1 for none
	listCalls int

	uploads   []RemoteFile
	uploaded  map[string][]byte
	uploadErr error

	deletes   []string
	deleteErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{listErrAt: -1, uploaded: map[string][]byte{}}
}

func (f *fakeFileStore) ListPage(ctx context.Context, pageSize int, pageToken string) (FilePage, error) {
	idx := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return FilePage{}, err
		}
		idx = n
	}
	f.listCalls++
	if idx == f.listErrAt {
		return FilePage{}, errors.New("listing unavailable")
	}
	if idx >= len(f.pages) {
		return FilePage{}, nil
	}
	page := f.pages[idx]
	if idx+1 < len(f.pages) {
		page.NextPageToken = strconv.Itoa(idx + 1)
	}
	return page, nil
}

func (f *fakeFileStore) Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (RemoteFile, error) {
	if f.uploadErr != nil {
		return RemoteFile{}, f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return RemoteFile{}, err
	}
	n := len(f.uploads) + 1
	file := RemoteFile{
		Name:        fmt.Sprintf("files/f%d", n),
		DisplayName: displayName,
		URI:         fmt.Sprintf("https://example.test/files/f%d", n),
		MIMEType:    mimeType,
	}
	f.uploads = append(f.uploads, file)
	f.uploaded[file.Name] = data
	return file, nil
}

func (f *fakeFileStore) Delete(ctx context.Context, name string) error {
	f.deletes = append(f.deletes, name)
	return f.deleteErr
}

type fakeCacheService struct {
	creates   []CacheRequest
	createErr error
	gets      []string
	getErr    error
}

func (f *fakeCacheService) Create(ctx context.Context, model string, req CacheRequest) (CachedContent, error) {
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		return CachedContent{}, f.createErr
	}
	return CachedContent{Name: fmt.Sprintf("cachedContents/c%d", len(f.creates)), Model: model}, nil
}

func (f *fakeCacheService) Get(ctx context.Context, name string) (CachedContent, error) {
	f.gets = append(f.gets, name)
	if f.getErr != nil {
		return CachedContent{}, f.getErr
	}
	return CachedContent{Name: name}, nil
}

type fakeChatService struct {
	started  []ChatConfig
	startErr error
	session  *fakeSession
}

func (f *fakeChatService) StartChat(ctx context.Context, cfg ChatConfig) (ChatSession, error) {
	f.started = append(f.started, cfg)
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.session == nil {
		f.session = &fakeSession{failAfter: -1}
	}
	return f.session, nil
}

type fakeSession struct {
	fragments []string
	failAfter int // emit an error after this many fragments, -1 for none
	messages  []string
}

func (s *fakeSession) SendStream(ctx context.Context, message string) iter.Seq2[string, error] {
	s.messages = append(s.messages, message)
	return func(yield func(string, error) bool) {
		for i, fragment := range s.fragments {
			if i == s.failAfter {
				yield("", errors.New("stream reset"))
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
		if s.failAfter >= len(s.fragments) {
			yield("", errors.New("stream reset"))
		}
	}
}
