package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File is a file-based Store for CLI usage.
// Each entry is a JSON file holding the value and an optional expiration
// time. Filenames are SHA-256 hashes of the key, so any key is safe to use
// and distinct keys never collide on disk.
//
// Multiple File instances, even in different processes, may share a
// directory. Writes go through a temporary file and a rename, so readers
// never observe a partially written entry.
type File struct {
	dir string
	ttl time.Duration
}

// fileEntry wraps stored data with metadata.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewFile creates a file-based store in dir. The directory is created with
// mode 0755 if it doesn't exist. A ttl of 0 means entries never expire.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{dir: dir, ttl: ttl}, nil
}

// Dir returns the directory holding the entries.
func (f *File) Dir() string { return f.dir }

// TTL returns the time-to-live applied to new entries.
func (f *File) TTL() time.Duration { return f.ttl }

// Get retrieves a value from the store. Expired and unreadable entries are
// removed and reported as misses.
func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := f.path(key)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// Set stores a value, resetting its expiration.
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := fileEntry{Data: value}
	if f.ttl > 0 {
		entry.ExpiresAt = time.Now().Add(f.ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the store.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry file and the now-empty subdirectories.
func (f *File) Clear(context.Context) (int, error) {
	count := 0
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == f.dir || d.IsDir() {
			return nil
		}
		if os.Remove(path) == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return count, err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.Remove(filepath.Join(f.dir, e.Name()))
		}
	}
	return count, nil
}

// path converts a key to a file path. The first two hex characters of the
// hash name a subdirectory to keep directories small.
func (f *File) path(key string) string {
	h := sha256.Sum256([]byte(key))
	hash := hex.EncodeToString(h[:])
	return filepath.Join(f.dir, hash[:2], hash[2:]+".json")
}

var (
	_ Store   = (*File)(nil)
	_ Deleter = (*File)(nil)
	_ Clearer = (*File)(nil)
)
