package blacklist

import (
	"context"
	"time"
)

type Reason string

const (
	ReasonError      Reason = "error"
	ReasonBlock      Reason = "block"
	ReasonInvalid    Reason = "invalid"
	ReasonSpamReport Reason = "spam_report"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonError, ReasonBlock, ReasonInvalid, ReasonSpamReport:
		return true
	}
	return false
}

// Entry is one denied recipient for one account.
type Entry struct {
	Number     string    `json:"number"`
	Reason     Reason    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
	AccountID  string    `json:"instance_id"`
	RetryCount int       `json:"retry_count"`
}

type AddRequest struct {
	Number    string `json:"number"`
	Reason    Reason `json:"reason"`
	AccountID string `json:"account_id"`
}

type FilterRequest struct {
	Numbers   []string `json:"numbers"`
	AccountID string   `json:"account_id"`
}

type FilterResult struct {
	Valid       []string `json:"valid"`
	Blacklisted []string `json:"blacklisted"`
}

// ExpiryPolicy decides how long an entry stays effective.
type ExpiryPolicy struct {
	ShortTTL       time.Duration
	LongTTL        time.Duration
	RetryThreshold int
	MaxAge         time.Duration
}

func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		ShortTTL:       24 * time.Hour,
		LongTTL:        7 * 24 * time.Hour,
		RetryThreshold: 3,
		MaxAge:         30 * 24 * time.Hour,
	}
}

// Storage persists the whole list as one JSON array under a fixed key.
type Storage interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

type IBlacklistUsecase interface {
	Add(ctx context.Context, number string, reason Reason, accountID string) (Entry, error)
	Remove(ctx context.Context, number, accountID string) error
	IsBlacklisted(ctx context.Context, number, accountID string) (bool, error)
	FilterValid(ctx context.Context, numbers []string, accountID string) (FilterResult, error)
	List(ctx context.Context, accountID string) ([]Entry, error)
	Sweep(ctx context.Context) (int, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)

	// The *Accounts variants only see or touch entries of the given accounts.
	SweepAccounts(ctx context.Context, accountIDs []string) (int, error)
	ExportAccounts(ctx context.Context, accountIDs []string) ([]byte, error)
	ImportAccounts(ctx context.Context, data []byte, accountIDs []string) (int, error)
	StartBackgroundSweep(ctx context.Context, interval time.Duration)
}
