// Package blob stores uploaded attachments and avatars.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the size cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Store persists uploaded blobs and returns a URL clients can fetch.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error)
}

// DiskStore writes blobs under a root directory served statically.
type DiskStore struct {
	root     string
	baseURL  string
	maxBytes int64
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, baseURL: baseURL, maxBytes: maxBytes}, nil
}

// Save writes the blob under a unique name derived from the original
// filename and returns its URL. The size cap is enforced before any bytes
// land on disk and again while copying, since multipart sizes can lie.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if size > s.maxBytes {
		return "", ErrTooLarge
	}

	name := uuid.NewString() + sanitizeExt(filename)
	path := filepath.Join(s.root, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if written > s.maxBytes {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return s.baseURL + "/" + name, nil
}

func sanitizeExt(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if len(ext) > 16 {
		return ""
	}
	return ext
}
