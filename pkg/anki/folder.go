package anki

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNoMarkdownFiles = errors.New("no markdown files found in the folder")
	ErrNoCards         = errors.New("no cards found in any files")
	ErrEmptyDeckName   = errors.New("deck name is empty")
)

// MarkdownFiles returns every .md file below root, including subfolders, in
// lexical order.
func MarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
