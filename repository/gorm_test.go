package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AzielCF/az-engage/core/database"
	domainAccount "github.com/AzielCF/az-engage/domains/account"
	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewInMemorySQLite()
	if err != nil {
		t.Fatalf("NewInMemorySQLite() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestAccountGormRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	acc := &domainAccount.Account{OwnerID: "alice", Name: "Sales", GatewayToken: "tok-1"}
	require.NoError(t, repo.Create(ctx, acc))
	require.NotEmpty(t, acc.ID)
	require.NoError(t, repo.Create(ctx, &domainAccount.Account{OwnerID: "bob", Name: "Support", GatewayToken: "tok-2"}))

	got, err := repo.GetForOwner(ctx, "alice", acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.GatewayToken)
	assert.Equal(t, "Sales", got.Name)

	_, err = repo.GetForOwner(ctx, "bob", acc.ID)
	assert.True(t, errors.Is(err, domainAccount.ErrAccountNotFound))

	_, err = repo.GetForOwner(ctx, "alice", "missing")
	assert.True(t, errors.Is(err, domainAccount.ErrAccountNotFound))

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCampaignGormRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	scheduled := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := &domainCampaign.CampaignRecord{
		OwnerID:      "alice",
		AccountID:    "acc-1",
		FolderID:     "fold-1",
		LocalID:      "campaign_1_1",
		Name:         "Promo",
		Status:       "completed",
		Total:        2,
		MediaURL:     "https://cdn/a.png",
		MediaType:    "image/png",
		ScheduledFor: &scheduled,
		Recipients:   []string{"5511999999999", "120363025246125486@g.us"},
	}
	require.NoError(t, repo.Create(ctx, rec))
	require.NotEmpty(t, rec.ID)

	got, err := repo.GetByFolder(ctx, "alice", "fold-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Recipients, got.Recipients)
	assert.Equal(t, "https://cdn/a.png", got.MediaURL)
	require.NotNil(t, got.ScheduledFor)
	assert.True(t, got.ScheduledFor.Equal(scheduled))

	_, err = repo.GetByFolder(ctx, "bob", "fold-1")
	assert.True(t, errors.Is(err, domainCampaign.ErrCampaignRecordNotFound))

	require.NoError(t, repo.UpdateFromRemote(ctx, "alice", "fold-1", domainCampaign.RemoteCounters{
		Status: "ativo", Total: 2, Sent: 1, Failed: 1, Delivered: 1, Read: 0,
	}))
	got, _ = repo.GetByFolder(ctx, "alice", "fold-1")
	assert.Equal(t, "ativo", got.Status)
	assert.Equal(t, 1, got.Sent)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Delivered)

	require.NoError(t, repo.UpdateStatus(ctx, "alice", "fold-1", "paused"))
	got, _ = repo.GetByFolder(ctx, "alice", "fold-1")
	assert.Equal(t, "paused", got.Status)

	err = repo.UpdateStatus(ctx, "bob", "fold-1", "paused")
	assert.True(t, errors.Is(err, domainCampaign.ErrCampaignRecordNotFound))

	require.NoError(t, repo.Create(ctx, &domainCampaign.CampaignRecord{OwnerID: "alice", AccountID: "acc-1", Status: "cancelled"}))
	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		if r.Status == "cancelled" {
			assert.Empty(t, r.Recipients)
			assert.Empty(t, r.FolderID)
		}
	}
}

func TestCampaignGormRepository_RemoteSyncKeepsFailed(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Create(ctx, &domainCampaign.CampaignRecord{
		OwnerID: "alice", AccountID: "acc-1", FolderID: "fold-1", Status: "ativo", Total: 10,
	}))
	require.NoError(t, repo.UpdateStatus(ctx, "alice", "fold-1", "failed"))

	require.NoError(t, repo.UpdateFromRemote(ctx, "alice", "fold-1", domainCampaign.RemoteCounters{
		Status: "paused", Total: 10, Sent: 3,
	}))
	got, err := repo.GetByFolder(ctx, "alice", "fold-1")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, 3, got.Sent)

	require.NoError(t, repo.UpdateStatus(ctx, "alice", "fold-1", "ativo"))
	got, _ = repo.GetByFolder(ctx, "alice", "fold-1")
	assert.Equal(t, "ativo", got.Status)
}
