package screenshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir stores screenshots under a local directory that is served at
// baseURL, for example by a static file server or the API itself.
type Dir struct {
	root    string
	baseURL string
}

func NewDir(root, baseURL string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("screenshots.dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &Dir{root: root, baseURL: baseURL}, nil
}

func (d *Dir) Root() string { return d.root }

func (d *Dir) Upload(ctx context.Context, key string, body io.Reader, _ string) (string, error) {
	k, err := clean(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(d.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("upload %s: %w", k, err)
	}

	// Write to a temp file and rename so readers never see a partial image.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", k, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("upload %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", k, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("upload %s: %w", k, err)
	}
	return joinURL(d.baseURL, k), nil
}
