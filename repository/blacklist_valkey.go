package repository

import (
	"context"
	"encoding/json"
	"fmt"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	"github.com/AzielCF/az-engage/infrastructure/valkey"
)

// ValkeyBlacklistStorage keeps the whole list as one JSON value so every
// server sharing the instance sees the same deny-list.
type ValkeyBlacklistStorage struct {
	client *valkey.Client
	key    string
}

func NewValkeyBlacklistStorage(client *valkey.Client, key string) *ValkeyBlacklistStorage {
	return &ValkeyBlacklistStorage{
		client: client,
		key:    client.Key(key),
	}
}

func (s *ValkeyBlacklistStorage) Load(ctx context.Context) ([]domainBlacklist.Entry, error) {
	data, err := s.client.GetBytes(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []domainBlacklist.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return entries, nil
}

func (s *ValkeyBlacklistStorage) Save(ctx context.Context, entries []domainBlacklist.Entry) error {
	if entries == nil {
		entries = []domainBlacklist.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.client.SetBytes(ctx, s.key, data)
}
