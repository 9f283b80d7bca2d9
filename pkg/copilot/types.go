// Package copilot keeps vault files uploaded to a generative AI provider,
// bundles them into a provider-side context cache and answers questions
// against that cache.
//
// Remote files are identified across restarts only by their display name,
// "<logical path>:<fingerprint>". No local manifest is written.
package copilot

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"
)

var (
	// ErrConfiguration marks usage errors rejected before any remote call.
	ErrConfiguration = errors.New("copilot configuration error")

	ErrNothingToCache     = wrapConfig("no files uploaded, upload files before creating cache")
	ErrNoCache            = wrapConfig("no cache available, create or load a cache first")
	ErrChatNotInitialized = wrapConfig("chat not initialized, call Init first")
	ErrEmptyQuestion      = wrapConfig("question is empty")
)

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }
func (e *configError) Unwrap() error { return ErrConfiguration }

func wrapConfig(msg string) error { return &configError{msg: msg} }

// RemoteFile is a borrowed reference to a file owned by the provider.
// DisplayName is the only field this package controls.
type RemoteFile struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
	MIMEType    string `json:"mime_type"`
}

// FilePage is one page of a remote file listing.
type FilePage struct {
	Files         []RemoteFile
	NextPageToken string
}

// FileStore is the provider's file API.
type FileStore interface {
	ListPage(ctx context.Context, pageSize int, pageToken string) (FilePage, error)
	Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (RemoteFile, error)
	Delete(ctx context.Context, name string) error
}

// CachedContent is a provider-side context cache handle. Immutable once
// created; a changed file set needs a new cache.
type CachedContent struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	ExpireTime time.Time `json:"expire_time"`
}

type CacheRequest struct {
	SystemInstruction string
	Files             []RemoteFile
	TTL               time.Duration
	DisplayName       string
}

type CacheService interface {
	Create(ctx context.Context, model string, req CacheRequest) (CachedContent, error)
	Get(ctx context.Context, name string) (CachedContent, error)
}

type ChatConfig struct {
	Model             string
	SystemInstruction string
	Cache             CachedContent
}

// ChatSession holds conversational state on the provider side.
type ChatSession interface {
	// SendStream yields text fragments in arrival order. A non-nil error
	// ends the stream.
	SendStream(ctx context.Context, message string) iter.Seq2[string, error]
}

type ChatService interface {
	StartChat(ctx context.Context, cfg ChatConfig) (ChatSession, error)
}
