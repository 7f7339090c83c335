package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
)

// FileBlacklistStorage writes the list as a JSON array to <dir>/<key>.json.
type FileBlacklistStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileBlacklistStorage(dir, key string) *FileBlacklistStorage {
	return &FileBlacklistStorage{path: filepath.Join(dir, key+".json")}
}

func (f *FileBlacklistStorage) Path() string {
	return f.path
}

func (f *FileBlacklistStorage) Load(ctx context.Context) ([]domainBlacklist.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []domainBlacklist.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return entries, nil
}

// Save writes to a temp file and renames it so readers never see a partial list.
func (f *FileBlacklistStorage) Save(ctx context.Context, entries []domainBlacklist.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if entries == nil {
		entries = []domainBlacklist.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
