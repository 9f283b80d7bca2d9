// Package filehash fingerprints vault files for change detection.
package filehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FingerprintLength is the number of hex characters kept from the digest.
// Short enough to read in a remote display name; not a security property.
const FingerprintLength = 8

const (
	MIMETypePDF      = "application/pdf"
	MIMETypeMarkdown = "text/markdown"
	MIMETypeText     = "text/plain"
)

// File reads path and returns its MIME type and fingerprint.
func File(path string) (mimeType, fingerprint string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return MIMEType(path, data), Fingerprint(data), nil
}

// Fingerprint returns the first FingerprintLength hex characters of the
// SHA-256 digest of data. The result never contains a colon.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// MIMEType maps the extensions the assistant uploads most and sniffs the rest.
// Text and unknown content fall back to text/plain.
func MIMEType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MIMETypePDF
	case ".md":
		return MIMETypeMarkdown
	}

	detected := mimetype.Detect(data)
	if detected == nil {
		return MIMETypeText
	}
	base, _, _ := strings.Cut(detected.String(), ";")
	base = strings.TrimSpace(base)
	if base == "" || base == "application/octet-stream" || strings.HasPrefix(base, "text/") {
		return MIMETypeText
	}
	return base
}
