package campaign

import (
	"context"
	"time"
)

// Status is the lifecycle of a campaign tracked locally by this process.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusScheduled Status = "scheduled"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further outcomes are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

type MediaRef struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name,omitempty"`
}

// CampaignSpec is what the operator submits from the console.
type CampaignSpec struct {
	AccountID    string    `json:"account_id"`
	Name         string    `json:"name"`
	Numbers      []string  `json:"numbers"`
	Text         string    `json:"text"`
	TextVariants []string  `json:"text_variants,omitempty"`
	Media        *MediaRef `json:"media,omitempty"`
	DelayMin     int       `json:"delay_min"`
	DelayMax     int       `json:"delay_max"`
	ScheduledFor int64     `json:"scheduled_for,omitempty"` // epoch ms

	// OwnerID is set by the service from the authenticated user, never from the request body.
	OwnerID string `json:"-"`
}

// DispatchMessage is one per recipient, handed straight to the gateway.
type DispatchMessage struct {
	Number string    `json:"number"`
	Kind   string    `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Media  *MediaRef `json:"media,omitempty"`
}

type RecipientResult struct {
	Number  string `json:"number"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CampaignProgress is the in-memory record owned by the registry.
type CampaignProgress struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"-"`
	Name      string            `json:"name"`
	AccountID string            `json:"account_id"`
	FolderID  string            `json:"folder_id,omitempty"`
	Numbers   []string          `json:"-"`
	Total     int               `json:"total"`
	Sent      int               `json:"sent"`
	Errors    int               `json:"errors"`
	Status    Status            `json:"status"`
	Results   []RecipientResult `json:"results"`
	StartTime time.Time         `json:"start_time"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// CampaignDetails is a snapshot with the derived metrics filled in.
type CampaignDetails struct {
	CampaignProgress
	Progress         int     `json:"progress"`
	SuccessRate      float64 `json:"success_rate"`
	TimeElapsedMs    int64   `json:"time_elapsed_ms"`
	TimeElapsedHuman string  `json:"time_elapsed_human"`
}

// DispatchResult is returned to the operator after a bulk send.
type DispatchResult struct {
	CampaignID  string   `json:"campaign_id"`
	FolderID    string   `json:"folder_id,omitempty"`
	Count       int      `json:"count"`
	Status      Status   `json:"status"`
	Blacklisted []string `json:"blacklisted,omitempty"`
}

type ICampaignUsecase interface {
	Dispatch(ctx context.Context, ownerID string, spec CampaignSpec) (DispatchResult, error)
	Details(ctx context.Context, ownerID, campaignID string) (CampaignDetails, error)
	ListLocal(ctx context.Context, ownerID string) []CampaignDetails

	ListRemote(ctx context.Context, ownerID, accountID string) ([]ReconciledCampaign, error)
	Pause(ctx context.Context, ownerID, accountID, folderID string) error
	Resume(ctx context.Context, ownerID, accountID, folderID string) error
	Delete(ctx context.Context, ownerID, accountID, folderID string) error

	SweepStuck(ctx context.Context, ownerID, accountID string) ([]StuckCampaign, error)
	StartPeriodicSweep(ctx context.Context)
	CollectFailures(ctx context.Context, ownerID, accountID, folderID string) (int, error)
}

// IProgressNotifier pushes campaign snapshots to connected consoles.
type IProgressNotifier interface {
	NotifyProgress(details CampaignDetails)
}
