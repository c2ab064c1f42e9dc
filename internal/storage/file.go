// ABOUTME: File-backed Store keeping all keys in one JSON document
// ABOUTME: Lives in the XDG config directory with owner-only permissions

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in a single JSON object on disk
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store at path. The file and its directory are
// created lazily on first write.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file location
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.load()[key]
	return v, ok
}

func (f *FileStore) Set(_ context.Context, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := f.load()
	data[key] = value
	f.save(data)
}

func (f *FileStore) Remove(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := f.load()
	if _, ok := data[key]; !ok {
		return
	}
	delete(data, key)
	f.save(data)
}

func (f *FileStore) Clear(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("Failed to clear session file", "path", f.path, "error", err)
	}
}

// load reads the document. Missing or corrupt files read as empty.
func (f *FileStore) load() map[string]string {
	data := map[string]string{}

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return data
	}
	if err != nil {
		f.logger.Warn("Failed to read session file", "path", f.path, "error", err)
		return data
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		f.logger.Warn("Ignoring corrupt session file", "path", f.path, "error", err)
		return map[string]string{}
	}
	return data
}

// save writes to a temp file and renames it over the old one
func (f *FileStore) save(data map[string]string) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		f.logger.Warn("Failed to create config directory", "dir", dir, "error", err)
		return
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		f.logger.Warn("Failed to encode session file", "error", err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		f.logger.Warn("Failed to write session file", "path", f.path, "error", err)
		return
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(raw)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		f.logger.Warn("Failed to write session file", "path", f.path, "error", errors.Join(werr, cerr))
		return
	}

	if err := os.Chmod(tmpName, 0600); err != nil {
		f.logger.Debug("Failed to chmod session file", "error", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		f.logger.Warn("Failed to replace session file", "path", f.path, "error", err)
	}
}
