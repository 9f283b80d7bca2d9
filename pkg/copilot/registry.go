package copilot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
)

// Entry pairs a remote handle with the fingerprint of the content it holds.
type Entry struct {
	File        RemoteFile
	Fingerprint string
}

// Registry maps logical paths to uploaded files. Entries never expire; they
// are replaced when content changes.
type Registry struct {
	items *cache.Cache
}

func NewRegistry() *Registry {
	return &Registry{
		items: cache.New(cache.NoExpiration, 0),
	}
}

func (r *Registry) Get(path string) (Entry, bool) {
	if x, found := r.items.Get(path); found {
		return x.(Entry), true
	}
	return Entry{}, false
}

func (r *Registry) Set(path string, entry Entry) {
	r.items.Set(path, entry, cache.NoExpiration)
}

func (r *Registry) Delete(path string) {
	r.items.Delete(path)
}

func (r *Registry) Len() int {
	return r.items.ItemCount()
}

// Paths returns the registered logical paths in lexical order.
func (r *Registry) Paths() []string {
	items := r.items.Items()
	paths := make([]string, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FormatDisplayName builds the remote label that encodes the registry entry.
func FormatDisplayName(path, fingerprint string) string {
	return path + ":" + fingerprint
}

// ParseDisplayName splits a remote label on its last colon. Paths may contain
// colons, fingerprints never do. Labels without a colon are not managed here.
func ParseDisplayName(label string) (path, fingerprint string, ok bool) {
	i := strings.LastIndex(label, ":")
	if i < 0 {
		return "", "", false
	}
	return label[:i], label[i+1:], true
}

// Load rebuilds the registry from every page of the remote listing. It
// returns how many entries were loaded and the first listing error; entries
// read before the error are kept.
func (r *Registry) Load(ctx context.Context, store FileStore, pageSize int) (int, error) {
	loaded := 0
	token := ""
	for {
		page, err := store.ListPage(ctx, pageSize, token)
		if err != nil {
			return loaded, fmt.Errorf("list remote files: %w", err)
		}

		for _, file := range page.Files {
			label := file.DisplayName
			if label == "" {
				label = file.Name
			}
			path, fingerprint, ok := ParseDisplayName(label)
			if !ok {
				continue
			}
			r.Set(path, Entry{File: file, Fingerprint: fingerprint})
			loaded++
		}

		if page.NextPageToken == "" {
			return loaded, nil
		}
		token = page.NextPageToken
	}
}
