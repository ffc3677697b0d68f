package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/campusnav/pkg/campus"
)

const filePermissions = 0o644

// FileStore keeps a document in one file. Paths ending in ".sz" are
// snappy block-compressed.
type FileStore struct {
	path string
}

// NewFileStore creates a store for path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes
func (s *FileStore) Path() string { return s.path }

// Kind returns "file"
func (s *FileStore) Kind() string { return "file" }

// Close is a no-op
func (s *FileStore) Close() error { return nil }

func (s *FileStore) compressed() bool {
	return strings.HasSuffix(s.path, ".sz")
}

// ReadRaw returns the decompressed bytes of the file
func (s *FileStore) ReadRaw() ([]byte, error) {
	reader, err := mmap.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if s.compressed() {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, &DecodeError{Location: s.path, Cause: err}
		}
		data = decoded
	}
	return data, nil
}

// Load reads and decodes the file
func (s *FileStore) Load(ctx context.Context) (*campus.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Location = s.path
		}
		return nil, err
	}
	return doc, nil
}

// Save writes the document to a temporary file and renames it into place,
// so readers and file watchers never see a partial document.
func (s *FileStore) Save(ctx context.Context, doc *campus.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if s.compressed() {
		data = snappy.Encode(nil, data)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"

	// Write to temporary file first
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}
