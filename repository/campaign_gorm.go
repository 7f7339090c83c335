package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type campaignModel struct {
	ID           string         `gorm:"primaryKey;column:id"`
	OwnerID      string         `gorm:"column:owner_id;not null;index:idx_campaign_owner_folder"`
	AccountID    string         `gorm:"column:account_id;not null;index"`
	FolderID     string         `gorm:"column:folder_id;index:idx_campaign_owner_folder"`
	LocalID      string         `gorm:"column:local_id"`
	Name         string         `gorm:"column:name"`
	Status       string         `gorm:"column:status;not null"`
	Total        int            `gorm:"column:total;default:0"`
	Sent         int            `gorm:"column:sent;default:0"`
	Failed       int            `gorm:"column:failed;default:0"`
	Delivered    int            `gorm:"column:delivered;default:0"`
	Read         int            `gorm:"column:read_count;default:0"`
	MediaURL     sql.NullString `gorm:"column:media_url"`
	MediaType    sql.NullString `gorm:"column:media_type"`
	ScheduledFor *time.Time     `gorm:"column:scheduled_for"`
	Recipients   pq.StringArray `gorm:"column:recipients;type:text"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
}

func (campaignModel) TableName() string { return "campaigns" }

// CampaignGormRepository persists one row per dispatch so the console keeps a
// history after the in-memory registry is gone.
type CampaignGormRepository struct {
	db *gorm.DB
}

var _ domainCampaign.ICampaignRecordRepository = (*CampaignGormRepository)(nil)

func NewCampaignGormRepository(db *gorm.DB) *CampaignGormRepository {
	return &CampaignGormRepository{db: db}
}

func (r *CampaignGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&campaignModel{})
}

func (r *CampaignGormRepository) Create(ctx context.Context, record *domainCampaign.CampaignRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	model := toCampaignModel(*record)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *CampaignGormRepository) GetByFolder(ctx context.Context, ownerID, folderID string) (*domainCampaign.CampaignRecord, error) {
	var m campaignModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND folder_id = ?", ownerID, folderID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainCampaign.ErrCampaignRecordNotFound
		}
		return nil, err
	}
	rec := fromCampaignModel(m)
	return &rec, nil
}

func (r *CampaignGormRepository) ListByOwner(ctx context.Context, ownerID string) ([]domainCampaign.CampaignRecord, error) {
	var models []campaignModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domainCampaign.CampaignRecord, len(models))
	for i, m := range models {
		res[i] = fromCampaignModel(m)
	}
	return res, nil
}

func (r *CampaignGormRepository) UpdateStatus(ctx context.Context, ownerID, folderID, status string) error {
	return r.update(ctx, ownerID, folderID, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}

// UpdateFromRemote refreshes the counters. A failed status is kept; only an
// explicit UpdateStatus clears it.
func (r *CampaignGormRepository) UpdateFromRemote(ctx context.Context, ownerID, folderID string, counters domainCampaign.RemoteCounters) error {
	return r.update(ctx, ownerID, folderID, map[string]interface{}{
		"status":     gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", string(domainCampaign.ReconciledFailed), counters.Status),
		"total":      counters.Total,
		"sent":       counters.Sent,
		"failed":     counters.Failed,
		"delivered":  counters.Delivered,
		"read_count": counters.Read,
		"updated_at": time.Now().UTC(),
	})
}

func (r *CampaignGormRepository) update(ctx context.Context, ownerID, folderID string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("owner_id = ? AND folder_id = ?", ownerID, folderID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainCampaign.ErrCampaignRecordNotFound
	}
	return nil
}

func toCampaignModel(c domainCampaign.CampaignRecord) campaignModel {
	return campaignModel{
		ID:           c.ID,
		OwnerID:      c.OwnerID,
		AccountID:    c.AccountID,
		FolderID:     c.FolderID,
		LocalID:      c.LocalID,
		Name:         c.Name,
		Status:       c.Status,
		Total:        c.Total,
		Sent:         c.Sent,
		Failed:       c.Failed,
		Delivered:    c.Delivered,
		Read:         c.Read,
		MediaURL:     toNullString(c.MediaURL),
		MediaType:    toNullString(c.MediaType),
		ScheduledFor: c.ScheduledFor,
		Recipients:   pq.StringArray(c.Recipients),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromCampaignModel(m campaignModel) domainCampaign.CampaignRecord {
	return domainCampaign.CampaignRecord{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		AccountID:    m.AccountID,
		FolderID:     m.FolderID,
		LocalID:      m.LocalID,
		Name:         m.Name,
		Status:       m.Status,
		Total:        m.Total,
		Sent:         m.Sent,
		Failed:       m.Failed,
		Delivered:    m.Delivered,
		Read:         m.Read,
		MediaURL:     m.MediaURL.String,
		MediaType:    m.MediaType.String,
		ScheduledFor: m.ScheduledFor,
		Recipients:   []string(m.Recipients),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
