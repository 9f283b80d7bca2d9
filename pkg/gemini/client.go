// Package gemini implements the copilot provider ports on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/pagpeter/obsidian-extensions/pkg/copilot"

	"google.golang.org/genai"
)

// Client adapts a genai client to copilot.FileStore, copilot.CacheService
// and copilot.ChatService.
type Client struct {
	genai *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{genai: c}, nil
}

func (c *Client) ListPage(ctx context.Context, pageSize int, pageToken string) (copilot.FilePage, error) {
	page, err := c.genai.Files.List(ctx, &genai.ListFilesConfig{
		PageSize:  int32(pageSize),
		PageToken: pageToken,
	})
	if err != nil {
		return copilot.FilePage{}, err
	}

	out := copilot.FilePage{NextPageToken: page.NextPageToken}
	for _, f := range page.Items {
		if f == nil {
			continue
		}
		out.Files = append(out.Files, toRemoteFile(f))
	}
	return out, nil
}

func (c *Client) Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (copilot.RemoteFile, error) {
	f, err := c.genai.Files.Upload(ctx, r, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return copilot.RemoteFile{}, err
	}
	return toRemoteFile(f), nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	_, err := c.genai.Files.Delete(ctx, name, nil)
	return err
}

func (c *Client) Create(ctx context.Context, model string, req copilot.CacheRequest) (copilot.CachedContent, error) {
	cached, err := c.genai.Caches.Create(ctx, model, cacheConfig(req))
	if err != nil {
		return copilot.CachedContent{}, err
	}
	return toCachedContent(cached), nil
}

func (c *Client) Get(ctx context.Context, name string) (copilot.CachedContent, error) {
	cached, err := c.genai.Caches.Get(ctx, name, nil)
	if err != nil {
		return copilot.CachedContent{}, err
	}
	return toCachedContent(cached), nil
}

func (c *Client) StartChat(ctx context.Context, cfg copilot.ChatConfig) (copilot.ChatSession, error) {
	chat, err := c.genai.Chats.Create(ctx, cfg.Model, chatConfig(cfg), nil)
	if err != nil {
		return nil, err
	}
	return &session{chat: chat}, nil
}

type session struct {
	chat *genai.Chat
}

func (s *session) SendStream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range s.chat.SendMessageStream(ctx, *genai.NewPartFromText(message)) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

func toRemoteFile(f *genai.File) copilot.RemoteFile {
	return copilot.RemoteFile{
		Name:        f.Name,
		DisplayName: f.DisplayName,
		URI:         f.URI,
		MIMEType:    f.MIMEType,
	}
}

func toCachedContent(c *genai.CachedContent) copilot.CachedContent {
	return copilot.CachedContent{
		Name:       c.Name,
		Model:      c.Model,
		ExpireTime: c.ExpireTime,
	}
}

// cacheConfig puts every file in one user turn and the system instruction
// beside it.
func cacheConfig(req copilot.CacheRequest) *genai.CreateCachedContentConfig {
	parts := make([]*genai.Part, 0, len(req.Files))
	for _, f := range req.Files {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}

	cfg := &genai.CreateCachedContentConfig{
		Contents:    []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		TTL:         req.TTL,
		DisplayName: req.DisplayName,
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

// chatConfig references the cache by name. The API rejects a system
// instruction next to cached content, so it is only sent without a cache.
func chatConfig(cfg copilot.ChatConfig) *genai.GenerateContentConfig {
	if cfg.Cache.Name != "" {
		return &genai.GenerateContentConfig{CachedContent: cfg.Cache.Name}
	}
	out := &genai.GenerateContentConfig{}
	if cfg.SystemInstruction != "" {
		out.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	return out
}
