// Package screenshot stores the before and after chart images attached to a
// trade and returns the public URL of each stored object.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid screenshot key")

// Kind says which side of the trade an image shows.
type Kind string

const (
	Before Kind = "before"
	After  Kind = "after"
)

// Uploader is the object-storage collaborator. Upload overwrites an
// existing object with the same key.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (url string, err error)
}

// Key builds the object key {userID}/{tradeID}/{kind}.{ext}. The extension
// comes from filename and falls back to png.
func Key(userID, tradeID string, kind Kind, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%s/%s/%s.%s", userID, tradeID, kind, ext)
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// clean rejects keys that are empty, absolute or escape their root.
func clean(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return c, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
