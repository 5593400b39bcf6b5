package storage

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SecureFilename reduces an uploaded file name to a safe ASCII base name:
// accents are decomposed and dropped, path separators become spaces, runs of
// whitespace become a single underscore and anything outside [A-Za-z0-9_.-]
// is removed. Leading and trailing dots and underscores are trimmed. The
// result may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// Ext returns the lower-cased extension of name without the leading dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
