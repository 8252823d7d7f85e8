package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File persists all items as a single JSON object on disk. Every write
// rewrites the document through a temporary file and a rename.
type File struct {
	path string

	mu     sync.Mutex
	items  map[string]string
	loaded bool
}

// OpenFile returns a File bound to path. The document is read lazily; a
// missing file is treated as empty.
func OpenFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("kvstore: file path is required")
	}
	return &File{path: filepath.Clean(path)}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// GetItem implements Storage.
func (f *File) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadLocked(); err != nil {
		return "", false, err
	}
	value, ok := f.items[key]
	return value, ok, nil
}

// SetItem implements Storage.
func (f *File) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadLocked(); err != nil {
		return err
	}

	next := make(map[string]string, len(f.items)+1)
	for k, v := range f.items {
		next[k] = v
	}
	next[key] = value
	if err := f.writeLocked(next); err != nil {
		return err
	}
	f.items = next
	return nil
}

func (f *File) loadLocked() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.items = make(map[string]string)
	case err != nil:
		return fmt.Errorf("kvstore: read %s: %w", f.path, err)
	default:
		items := make(map[string]string)
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("kvstore: decode %s: %w", f.path, err)
			}
		}
		f.items = items
	}
	f.loaded = true
	return nil
}

func (f *File) writeLocked(items map[string]string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("kvstore: encode items: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("kvstore: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".kvstore-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: replace %s: %w", f.path, err)
	}
	return nil
}
