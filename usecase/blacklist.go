package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/AzielCF/az-engage/validations"
	"github.com/sirupsen/logrus"
)

// BlacklistService owns the deny-list. Every operation loads the whole list,
// applies its change and writes it back under one lock.
type BlacklistService struct {
	mu      sync.Mutex
	storage domainBlacklist.Storage
	policy  domainBlacklist.ExpiryPolicy
	now     func() time.Time
}

var _ domainBlacklist.IBlacklistUsecase = (*BlacklistService)(nil)

func NewBlacklistService(storage domainBlacklist.Storage, policy domainBlacklist.ExpiryPolicy) *BlacklistService {
	return &BlacklistService{
		storage: storage,
		policy:  policy,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *BlacklistService) WithClock(now func() time.Time) *BlacklistService {
	s.now = now
	return s
}

// TTL is the effective lifetime of an entry: repeat offenders stay longer.
func TTL(entry domainBlacklist.Entry, policy domainBlacklist.ExpiryPolicy) time.Duration {
	if entry.RetryCount > policy.RetryThreshold {
		return policy.LongTTL
	}
	return policy.ShortTTL
}

// IsExpired is the pure expiry predicate used by lookups.
func IsExpired(entry domainBlacklist.Entry, now time.Time, policy domainBlacklist.ExpiryPolicy) bool {
	return now.Sub(entry.Timestamp) > TTL(entry, policy)
}

func entryKey(accountID, number string) string {
	return accountID + "|" + number
}

func indexEntries(entries []domainBlacklist.Entry) map[string]int {
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		idx[entryKey(e.AccountID, e.Number)] = i
	}
	return idx
}

func (s *BlacklistService) Add(ctx context.Context, number string, reason domainBlacklist.Reason, accountID string) (domainBlacklist.Entry, error) {
	if err := validations.ValidateBlacklistAdd(number, reason, accountID); err != nil {
		return domainBlacklist.Entry{}, err
	}
	number = utils.NormalizeRecipient(number)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return domainBlacklist.Entry{}, fmt.Errorf("load blacklist: %w", err)
	}

	now := s.now()
	var entry domainBlacklist.Entry
	if i, ok := indexEntries(entries)[entryKey(accountID, number)]; ok {
		entries[i].RetryCount++
		entries[i].Timestamp = now
		entries[i].Reason = reason
		entry = entries[i]
	} else {
		entry = domainBlacklist.Entry{
			Number:     number,
			Reason:     reason,
			Timestamp:  now,
			AccountID:  accountID,
			RetryCount: 1,
		}
		entries = append(entries, entry)
	}

	if err := s.storage.Save(ctx, entries); err != nil {
		return domainBlacklist.Entry{}, fmt.Errorf("save blacklist: %w", err)
	}
	logrus.Debugf("[BLACKLIST] %s blacklisted for %s (reason=%s, retries=%d)", number, accountID, reason, entry.RetryCount)
	return entry, nil
}

func (s *BlacklistService) Remove(ctx context.Context, number, accountID string) error {
	number = utils.NormalizeRecipient(number)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	i, ok := indexEntries(entries)[entryKey(accountID, number)]
	if !ok {
		return pkgError.NotFoundError(fmt.Sprintf("number %s is not blacklisted", number))
	}
	entries = append(entries[:i], entries[i+1:]...)
	return s.storage.Save(ctx, entries)
}

func (s *BlacklistService) IsBlacklisted(ctx context.Context, number, accountID string) (bool, error) {
	res, err := s.FilterValid(ctx, []string{number}, accountID)
	if err != nil {
		return false, err
	}
	return len(res.Blacklisted) == 1, nil
}

// FilterValid splits numbers into sendable and denied. The only write it can
// cause is evicting entries found expired.
func (s *BlacklistService) FilterValid(ctx context.Context, numbers []string, accountID string) (domainBlacklist.FilterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return domainBlacklist.FilterResult{}, fmt.Errorf("load blacklist: %w", err)
	}

	now := s.now()
	idx := indexEntries(entries)
	evict := make(map[int]bool)
	res := domainBlacklist.FilterResult{Valid: []string{}, Blacklisted: []string{}}

	for _, raw := range numbers {
		i, ok := idx[entryKey(accountID, utils.NormalizeRecipient(raw))]
		switch {
		case !ok:
			res.Valid = append(res.Valid, raw)
		case IsExpired(entries[i], now, s.policy):
			evict[i] = true
			res.Valid = append(res.Valid, raw)
		default:
			res.Blacklisted = append(res.Blacklisted, raw)
		}
	}

	if len(evict) > 0 {
		kept := entries[:0]
		for i, e := range entries {
			if !evict[i] {
				kept = append(kept, e)
			}
		}
		if err := s.storage.Save(ctx, kept); err != nil {
			return domainBlacklist.FilterResult{}, fmt.Errorf("save blacklist: %w", err)
		}
		logrus.Debugf("[BLACKLIST] Evicted %d expired entries for %s", len(evict), accountID)
	}
	return res, nil
}

// List returns the effective entries of one account, or of all accounts when
// accountID is empty, most recent first.
func (s *BlacklistService) List(ctx context.Context, accountID string) ([]domainBlacklist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}

	now := s.now()
	out := make([]domainBlacklist.Entry, 0, len(entries))
	for _, e := range entries {
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		if IsExpired(e, now, s.policy) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// accountFilter reports whether an entry of accountID is in scope. A nil
// filter means every account.
type accountFilter func(accountID string) bool

func onlyAccounts(accountIDs []string) accountFilter {
	allowed := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		allowed[id] = struct{}{}
	}
	return func(accountID string) bool {
		_, ok := allowed[accountID]
		return ok
	}
}

func (f accountFilter) allows(accountID string) bool {
	return f == nil || f(accountID)
}

// Sweep purges entries older than the absolute cap. Tier expiry is left to lookups.
func (s *BlacklistService) Sweep(ctx context.Context) (int, error) {
	return s.sweep(ctx, nil)
}

func (s *BlacklistService) SweepAccounts(ctx context.Context, accountIDs []string) (int, error) {
	return s.sweep(ctx, onlyAccounts(accountIDs))
}

func (s *BlacklistService) sweep(ctx context.Context, scope accountFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load blacklist: %w", err)
	}

	now := s.now()
	kept := make([]domainBlacklist.Entry, 0, len(entries))
	for _, e := range entries {
		if !scope.allows(e.AccountID) || now.Sub(e.Timestamp) <= s.policy.MaxAge {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.storage.Save(ctx, kept); err != nil {
		return 0, fmt.Errorf("save blacklist: %w", err)
	}
	logrus.Infof("[BLACKLIST] Sweep removed %d entries older than %s", removed, s.policy.MaxAge)
	return removed, nil
}

func (s *BlacklistService) Export(ctx context.Context) ([]byte, error) {
	return s.export(ctx, nil)
}

func (s *BlacklistService) ExportAccounts(ctx context.Context, accountIDs []string) ([]byte, error) {
	return s.export(ctx, onlyAccounts(accountIDs))
}

func (s *BlacklistService) export(ctx context.Context, scope accountFilter) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}
	out := make([]domainBlacklist.Entry, 0, len(entries))
	for _, e := range entries {
		if scope.allows(e.AccountID) {
			out = append(out, e)
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Import merges a previous export. Nothing is written unless every record is valid.
func (s *BlacklistService) Import(ctx context.Context, data []byte) (int, error) {
	return s.importEntries(ctx, data, nil)
}

// ImportAccounts is Import restricted to the given accounts; a record for any
// other account rejects the whole batch.
func (s *BlacklistService) ImportAccounts(ctx context.Context, data []byte, accountIDs []string) (int, error) {
	return s.importEntries(ctx, data, onlyAccounts(accountIDs))
}

func (s *BlacklistService) importEntries(ctx context.Context, data []byte, scope accountFilter) (int, error) {
	var incoming []domainBlacklist.Entry
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, pkgError.ValidationError(fmt.Sprintf("invalid blacklist export: %v", err))
	}
	if err := validations.ValidateBlacklistImport(incoming); err != nil {
		return 0, err
	}
	for i := range incoming {
		if !scope.allows(incoming[i].AccountID) {
			return 0, pkgError.ForbiddenError(fmt.Sprintf("record %d: account %s is not available for this user", i, incoming[i].AccountID))
		}
		incoming[i].Number = utils.NormalizeRecipient(incoming[i].Number)
		if incoming[i].Number == "" {
			return 0, pkgError.ValidationError(fmt.Sprintf("record %d: number: must contain digits.", i))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load blacklist: %w", err)
	}

	idx := indexEntries(entries)
	for _, e := range incoming {
		key := entryKey(e.AccountID, e.Number)
		if i, ok := idx[key]; ok {
			entries[i] = e
			continue
		}
		idx[key] = len(entries)
		entries = append(entries, e)
	}

	if err := s.storage.Save(ctx, entries); err != nil {
		return 0, fmt.Errorf("save blacklist: %w", err)
	}
	logrus.Infof("[BLACKLIST] Imported %d entries", len(incoming))
	return len(incoming), nil
}

// StartBackgroundSweep runs Sweep once now and then every interval until ctx is done.
func (s *BlacklistService) StartBackgroundSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	go func() {
		for {
			if _, err := s.Sweep(ctx); err != nil {
				logrus.WithError(err).Error("[BLACKLIST] Sweep failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()
}
