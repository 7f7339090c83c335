package usecase

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/dustin/go-humanize"
)

// CampaignRegistry keeps the local progress of every campaign dispatched by
// this process. Entries are never evicted; they live until restart.
type CampaignRegistry struct {
	mu      sync.RWMutex
	entries map[string]*domainCampaign.CampaignProgress
	now     func() time.Time
	intn    func(n int) int
}

func NewCampaignRegistry() *CampaignRegistry {
	return &CampaignRegistry{
		entries: make(map[string]*domainCampaign.CampaignProgress),
		now:     time.Now,
		intn:    rand.IntN,
	}
}

// WithClock replaces the time source, for tests.
func (r *CampaignRegistry) WithClock(now func() time.Time) *CampaignRegistry {
	r.now = now
	return r
}

// Create registers a running entry with zeroed counters. A spec scheduled in
// the future starts as scheduled instead.
func (r *CampaignRegistry) Create(spec domainCampaign.CampaignSpec) domainCampaign.CampaignProgress {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	id := r.newID(now)
	for _, taken := r.entries[id]; taken; _, taken = r.entries[id] {
		id = r.newID(now)
	}

	status := domainCampaign.StatusRunning
	if spec.ScheduledFor > now.UnixMilli() {
		status = domainCampaign.StatusScheduled
	}

	entry := &domainCampaign.CampaignProgress{
		ID:        id,
		OwnerID:   spec.OwnerID,
		Name:      spec.Name,
		AccountID: spec.AccountID,
		Numbers:   append([]string(nil), spec.Numbers...),
		Total:     len(spec.Numbers),
		Status:    status,
		Results:   []domainCampaign.RecipientResult{},
		StartTime: now,
	}
	r.entries[id] = entry
	return snapshotProgress(entry)
}

func (r *CampaignRegistry) newID(now time.Time) string {
	return fmt.Sprintf("campaign_%d_%d", now.UnixMilli(), r.intn(1000))
}

// SetFolder links the entry to the gateway folder once the batch is accepted.
func (r *CampaignRegistry) SetFolder(id, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return pkgError.CampaignNotFound(id)
	}
	entry.FolderID = folderID
	return nil
}

func (r *CampaignRegistry) RecordOutcome(id string, result domainCampaign.RecipientResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return pkgError.CampaignNotFound(id)
	}
	if entry.Status.IsTerminal() {
		return pkgError.ValidationError(fmt.Sprintf("campaign %s is already %s", id, entry.Status))
	}
	recordOutcome(entry, result)
	return nil
}

func recordOutcome(entry *domainCampaign.CampaignProgress, result domainCampaign.RecipientResult) {
	entry.Results = append(entry.Results, result)
	if result.Success {
		entry.Sent++
	} else {
		entry.Errors++
	}
}

// Finalize closes the entry. The gateway reports only batch acceptance, so
// recipients without an outcome count as sent when the batch went through
// and as errored when it did not. A scheduled batch has sent nothing yet and
// keeps its recipients pending.
func (r *CampaignRegistry) Finalize(id string, status domainCampaign.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return pkgError.CampaignNotFound(id)
	}
	if entry.Status.IsTerminal() {
		return nil
	}

	if status == domainCampaign.StatusScheduled {
		entry.Status = status
		entry.Reason = reason
		return nil
	}

	success := status == domainCampaign.StatusCompleted
	for _, number := range pendingRecipients(entry) {
		res := domainCampaign.RecipientResult{Number: number, Success: success}
		if !success {
			res.Error = reason
		}
		recordOutcome(entry, res)
	}

	entry.Status = status
	entry.Reason = reason
	if status.IsTerminal() {
		end := r.now()
		entry.EndTime = &end
	}
	return nil
}

// pendingRecipients returns the numbers that have no recorded outcome yet.
// Duplicated numbers are matched one outcome each.
func pendingRecipients(entry *domainCampaign.CampaignProgress) []string {
	seen := make(map[string]int, len(entry.Results))
	for _, res := range entry.Results {
		seen[res.Number]++
	}
	var pending []string
	for _, number := range entry.Numbers {
		if seen[number] > 0 {
			seen[number]--
			continue
		}
		pending = append(pending, number)
	}
	return pending
}

func (r *CampaignRegistry) Details(id string) (domainCampaign.CampaignDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return domainCampaign.CampaignDetails{}, pkgError.CampaignNotFound(id)
	}
	return r.details(entry), nil
}

// List returns every entry, newest first.
func (r *CampaignRegistry) List() []domainCampaign.CampaignDetails {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domainCampaign.CampaignDetails, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, r.details(entry))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

func (r *CampaignRegistry) details(entry *domainCampaign.CampaignProgress) domainCampaign.CampaignDetails {
	end := r.now()
	if entry.EndTime != nil {
		end = *entry.EndTime
	}
	elapsed := end.Sub(entry.StartTime)

	progress := ProgressPercent(entry.Sent+entry.Errors, entry.Total)
	if entry.Total == 0 && entry.Status.IsTerminal() {
		progress = 100
	}

	return domainCampaign.CampaignDetails{
		CampaignProgress: snapshotProgress(entry),
		Progress:         progress,
		SuccessRate:      SuccessRate(entry.Sent, entry.Errors),
		TimeElapsedMs:    elapsed.Milliseconds(),
		TimeElapsedHuman: strings.TrimSpace(humanize.RelTime(entry.StartTime, end, "", "")),
	}
}

func snapshotProgress(entry *domainCampaign.CampaignProgress) domainCampaign.CampaignProgress {
	cp := *entry
	cp.Numbers = append([]string(nil), entry.Numbers...)
	cp.Results = append([]domainCampaign.RecipientResult{}, entry.Results...)
	if entry.EndTime != nil {
		end := *entry.EndTime
		cp.EndTime = &end
	}
	return cp
}

// ProgressPercent is floor(done/total*100) clamped to [0,100]; 0 when total is 0.
func ProgressPercent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	p := done * 100 / total
	if p > 100 {
		return 100
	}
	return p
}

// SuccessRate is sent/(sent+errors) in percent, 0 when nothing was attempted.
func SuccessRate(sent, errors int) float64 {
	attempts := sent + errors
	if attempts == 0 {
		return 0
	}
	return float64(sent) / float64(attempts) * 100
}
