package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/output"
	"SignalsDigest/internal/ports"
)

// seenDocument is the on-disk layout of the JSON state file.
type seenDocument struct {
	Seen []string `json:"seen"`
}

// FileStore keeps seen URLs in a JSON document {"seen": [...]}.
type FileStore struct {
	path string
}

var _ ports.SeenStore = (*FileStore)(nil)

// NewFileStore targets path; the file is created on the first Add.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file is an empty set.
func (s *FileStore) Load(ctx context.Context) (domain.SeenSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSeenSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen state %s: %w", s.path, err)
	}

	var doc seenDocument
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode seen state %s: %w", s.path, err)
		}
	}
	return domain.NewSeenSet(doc.Seen...), nil
}

// Add merges urls into the state file and rewrites it sorted.
func (s *FileStore) Add(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	seen, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, u := range urls {
		seen.Add(u)
	}

	raw, err := json.MarshalIndent(seenDocument{Seen: seen.Sorted()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen state: %w", err)
	}
	if err := output.WriteFileAtomic(s.path, append(raw, '\n')); err != nil {
		return fmt.Errorf("write seen state: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
