package campaign

import (
	"time"

	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
)

// ReconciledStatus is the canonical status shown for a remote campaign.
type ReconciledStatus string

const (
	ReconciledActive    ReconciledStatus = "ativo"
	ReconciledPaused    ReconciledStatus = "paused"
	ReconciledCompleted ReconciledStatus = "completed"
	ReconciledCancelled ReconciledStatus = "cancelled"
	ReconciledFailed    ReconciledStatus = "failed"
	ReconciledScheduled ReconciledStatus = "scheduled"
)

// StatusBucket is the normalized meaning of the gateway's free-text status.
type StatusBucket string

const (
	BucketActive    StatusBucket = "active"
	BucketDone      StatusBucket = "done"
	BucketPaused    StatusBucket = "paused"
	BucketCancelled StatusBucket = "cancelled"
	BucketFailed    StatusBucket = "failed"
	BucketScheduled StatusBucket = "scheduled"
	BucketUnknown   StatusBucket = "unknown"
)

// Policy holds the reconciliation thresholds.
type Policy struct {
	CompletionGrace     time.Duration
	ActiveWindow        time.Duration
	LongRunningAfter    time.Duration
	LongRunningProgress int
	StuckAfter          time.Duration
	StuckProgress       int
	AbandonedAfter      time.Duration
}

// DefaultPolicy mirrors the values observed in production.
func DefaultPolicy() Policy {
	return Policy{
		CompletionGrace:     5 * time.Minute,
		ActiveWindow:        time.Hour,
		LongRunningAfter:    6 * time.Hour,
		LongRunningProgress: 95,
		StuckAfter:          72 * time.Hour,
		StuckProgress:       5,
		AbandonedAfter:      96 * time.Hour,
	}
}

// Signals are the only inputs the classifier looks at.
type Signals struct {
	Age       time.Duration
	Total     int
	Processed int
	Bucket    StatusBucket
}

type ReconciledCampaign struct {
	Record       domainGateway.RemoteCampaignRecord `json:"record"`
	Status       ReconciledStatus                   `json:"status"`
	Progress     int                                `json:"progress"`
	Bucket       StatusBucket                       `json:"bucket"`
	Unrecognized bool                               `json:"unrecognized,omitempty"`
	Age          time.Duration                      `json:"age"`
	// Stuck is set when an active campaign was downgraded to failed.
	Stuck bool `json:"stuck,omitempty"`
}

// PauseOutcome reports a best-effort pause request.
type PauseOutcome struct {
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

type StuckCampaign struct {
	Campaign       ReconciledCampaign `json:"campaign"`
	ProposedStatus ReconciledStatus   `json:"proposed_status"`
	Pause          PauseOutcome       `json:"pause"`
}
