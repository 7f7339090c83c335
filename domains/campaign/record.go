package campaign

import (
	"context"
	"errors"
	"time"
)

var ErrCampaignRecordNotFound = errors.New("campaign record not found")

// CampaignRecord is the row persisted in the backend for every dispatch.
type CampaignRecord struct {
	ID           string
	OwnerID      string
	AccountID    string
	FolderID     string
	LocalID      string
	Name         string
	Status       string
	Total        int
	Sent         int
	Failed       int
	Delivered    int
	Read         int
	MediaURL     string
	MediaType    string
	ScheduledFor *time.Time
	Recipients   []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RemoteCounters is the subset of a remote record mirrored into the backend row.
type RemoteCounters struct {
	Status    string
	Total     int
	Sent      int
	Failed    int
	Delivered int
	Read      int
}

type ICampaignRecordRepository interface {
	Create(ctx context.Context, record *CampaignRecord) error
	GetByFolder(ctx context.Context, ownerID, folderID string) (*CampaignRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]CampaignRecord, error)
	UpdateStatus(ctx context.Context, ownerID, folderID, status string) error
	UpdateFromRemote(ctx context.Context, ownerID, folderID string, counters RemoteCounters) error
}
