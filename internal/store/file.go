package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/settlerhq/settler/internal/model"
)

// FileStore keeps the market set in one pretty-printed JSON file. Writes
// go through a temp file in the same directory followed by a rename, so a
// crash mid-save never leaves a truncated store behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the market set. A missing file is an empty store, not an
// error, so first runs need no setup step.
func (s *FileStore) Load(_ context.Context) ([]model.Market, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading market store: %w", err)
	}

	var markets []model.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("parsing market store %s: %w", s.path, err)
	}
	return markets, nil
}

// Save replaces the stored set atomically.
func (s *FileStore) Save(_ context.Context, markets []model.Market) error {
	if markets == nil {
		markets = []model.Market{}
	}
	data, err := json.MarshalIndent(markets, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding market store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".markets-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing market store: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
