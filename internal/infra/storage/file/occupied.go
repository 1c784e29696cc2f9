package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"staycal/internal/domain/availability"
)

// Backend stores the occupied dates as a single JSON array in one file, the
// server-side counterpart of a browser's single storage key.
type Backend struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("file: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file: create directory: %w", err)
	}
	return &Backend{path: path}, nil
}

func (b *Backend) Name() string { return "file" }

// Load returns no dates when the file does not exist yet.
func (b *Backend) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
	}
	return dates, nil
}

// Save writes to a temporary file and renames it over the old one so a
// crash never leaves a half-written array behind.
func (b *Backend) Save(ctx context.Context, dates []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dates == nil {
		dates = []string{}
	}
	data, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".occupied-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

// Ping reports whether the directory is still writable.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(b.path))
	return err
}

var _ availability.Backend = (*Backend)(nil)
