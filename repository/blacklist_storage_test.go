package repository

import (
	"context"
	"os"
	"testing"
	"time"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	"github.com/AzielCF/az-engage/infrastructure/valkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []domainBlacklist.Entry {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domainBlacklist.Entry{
		{Number: "5511999999999", Reason: domainBlacklist.ReasonError, Timestamp: ts, AccountID: "acc-1", RetryCount: 1},
		{Number: "5511888888888", Reason: domainBlacklist.ReasonBlock, Timestamp: ts, AccountID: "acc-2", RetryCount: 4},
	}
}

func exerciseStorage(t *testing.T, s domainBlacklist.Storage) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Save(ctx, sampleEntries()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "acc-2", got[1].AccountID)
	assert.Equal(t, 4, got[1].RetryCount)
	assert.True(t, got[0].Timestamp.Equal(sampleEntries()[0].Timestamp))

	require.NoError(t, s.Save(ctx, nil))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryBlacklistStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryBlacklistStorage())
}

func TestMemoryBlacklistStorage_LoadReturnsCopy(t *testing.T) {
	s := NewMemoryBlacklistStorage()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleEntries()))

	got, _ := s.Load(ctx)
	got[0].RetryCount = 99

	again, _ := s.Load(ctx)
	assert.Equal(t, 1, again[0].RetryCount)
}

func TestFileBlacklistStorage(t *testing.T) {
	dir := t.TempDir()
	s := NewFileBlacklistStorage(dir+"/nested", "whatsapp_blacklist")
	exerciseStorage(t, s)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileBlacklistStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileBlacklistStorage(dir, "whatsapp_blacklist")
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	assert.Error(t, err)
}

func TestValkeyBlacklistStorage(t *testing.T) {
	vk, err := valkey.NewClient(valkey.Config{Address: "localhost:6379", KeyPrefix: "engage-test", ConnectTimeout: 500 * time.Millisecond})
	if err != nil {
		t.Skip("No valkey")
	}
	defer vk.Close()

	key := "whatsapp_blacklist_test"
	ctx := context.Background()
	_ = vk.Inner().Do(ctx, vk.Inner().B().Del().Key(vk.Key(key)).Build())

	exerciseStorage(t, NewValkeyBlacklistStorage(vk, key))
}
