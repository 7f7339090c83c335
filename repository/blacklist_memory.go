package repository

import (
	"context"
	"sync"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
)

// MemoryBlacklistStorage keeps the list in process memory. Used in tests and
// when no durable store is configured.
type MemoryBlacklistStorage struct {
	mu      sync.Mutex
	entries []domainBlacklist.Entry
}

func NewMemoryBlacklistStorage() *MemoryBlacklistStorage {
	return &MemoryBlacklistStorage{}
}

func (m *MemoryBlacklistStorage) Load(ctx context.Context) ([]domainBlacklist.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domainBlacklist.Entry(nil), m.entries...), nil
}

func (m *MemoryBlacklistStorage) Save(ctx context.Context, entries []domainBlacklist.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]domainBlacklist.Entry(nil), entries...)
	return nil
}
