// Package media stores uploaded listing images on disk. Uploads are sniffed
// for their real content type, capped in size and renamed to opaque ids so
// nothing user controlled reaches the filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 8 << 20

var (
	// ErrTooLarge is returned for uploads over the size limit.
	ErrTooLarge = errors.New("upload exceeds the size limit")
	// ErrUnsupportedType is returned when the upload is not an accepted image.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrNotFound is returned when no stored file matches the name.
	ErrNotFound = errors.New("media file not found")
)

// allowedTypes are the image formats listings may carry.
var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Store saves uploads under a single directory.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore ensures the directory exists and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir %s : %w", dir, err)
	}
	return &Store{dir: dir, maxBytes: MaxUploadBytes}, nil
}

// File describes a stored upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
}

// Save reads the upload, verifies it is an accepted image within the size
// limit and writes it under a generated name with the matching extension.
func (s *Store) Save(r io.Reader) (*File, error) {
	buf, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload : %w", err)
	}
	if int64(len(buf)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(buf)
	allowed := false
	for _, accepted := range allowedTypes {
		if detected.Is(accepted) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrUnsupportedType
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating media id : %w", err)
	}

	name := id.String() + detected.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), buf, 0o644); err != nil {
		return nil, fmt.Errorf("writing media file %s : %w", name, err)
	}

	return &File{Name: name, ContentType: detected.String(), Size: int64(len(buf))}, nil
}

// Path resolves a stored name to its on-disk path. Names carrying path
// separators or traversal are treated as unknown files.
func (s *Store) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", ErrNotFound
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}
