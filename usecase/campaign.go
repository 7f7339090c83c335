package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	coreconfig "github.com/AzielCF/az-engage/core/config"
	domainAccount "github.com/AzielCF/az-engage/domains/account"
	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/AzielCF/az-engage/validations"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	failedMessageStatus = "Failed"
	failurePageSize     = 100
	maxFailurePages     = 50
)

// PolicyFromConfig builds the reconciliation policy from the loaded settings.
func PolicyFromConfig(cfg coreconfig.CampaignConfig) domainCampaign.Policy {
	return domainCampaign.Policy{
		CompletionGrace:     cfg.CompletionGrace,
		ActiveWindow:        cfg.ActiveWindow,
		LongRunningAfter:    cfg.LongRunningAfter,
		LongRunningProgress: cfg.LongRunningProgress,
		StuckAfter:          cfg.StuckAfter,
		StuckProgress:       cfg.StuckProgress,
		AbandonedAfter:      cfg.AbandonedAfter,
	}
}

func ExpiryPolicyFromConfig(cfg coreconfig.BlacklistConfig) domainBlacklist.ExpiryPolicy {
	return domainBlacklist.ExpiryPolicy{
		ShortTTL:       cfg.ShortTTL,
		LongTTL:        cfg.LongTTL,
		RetryThreshold: cfg.RetryThreshold,
		MaxAge:         cfg.MaxAge,
	}
}

type CampaignServiceDeps struct {
	Accounts      domainAccount.IAccountRepository
	Records       domainCampaign.ICampaignRecordRepository
	Gateways      domainGateway.ClientFactory
	Blacklist     domainBlacklist.IBlacklistUsecase
	Builder       *PayloadBuilder
	Registry      *CampaignRegistry
	Notifier      domainCampaign.IProgressNotifier
	Policy        domainCampaign.Policy
	ListCacheTTL  time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

type campaignService struct {
	accounts      domainAccount.IAccountRepository
	records       domainCampaign.ICampaignRecordRepository
	gateways      domainGateway.ClientFactory
	blacklist     domainBlacklist.IBlacklistUsecase
	builder       *PayloadBuilder
	registry      *CampaignRegistry
	notifier      domainCampaign.IProgressNotifier
	policy        domainCampaign.Policy
	listCache     *gocache.Cache
	sweepInterval time.Duration
	now           func() time.Time
}

type noopNotifier struct{}

func (noopNotifier) NotifyProgress(domainCampaign.CampaignDetails) {}

func NewCampaignService(deps CampaignServiceDeps) domainCampaign.ICampaignUsecase {
	s := &campaignService{
		accounts:      deps.Accounts,
		records:       deps.Records,
		gateways:      deps.Gateways,
		blacklist:     deps.Blacklist,
		builder:       deps.Builder,
		registry:      deps.Registry,
		notifier:      deps.Notifier,
		policy:        deps.Policy,
		sweepInterval: deps.SweepInterval,
		now:           deps.Now,
	}
	if s.builder == nil {
		s.builder = NewPayloadBuilder(10, 30)
	}
	if s.registry == nil {
		s.registry = NewCampaignRegistry()
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if deps.ListCacheTTL > 0 {
		s.listCache = gocache.New(deps.ListCacheTTL, 2*deps.ListCacheTTL)
	}
	return s
}

// resolveAccount authorizes the owner against the account and returns its gateway client.
func (s *campaignService) resolveAccount(ctx context.Context, ownerID, accountID string) (*domainAccount.Account, domainGateway.IGatewayClient, error) {
	acc, err := s.accounts.GetForOwner(ctx, ownerID, accountID)
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			return nil, nil, pkgError.ForbiddenError(fmt.Sprintf("account %s is not available for this user", accountID))
		}
		return nil, nil, fmt.Errorf("load account: %w", err)
	}
	return acc, s.gateways(acc.GatewayToken), nil
}

func (s *campaignService) Dispatch(ctx context.Context, ownerID string, spec domainCampaign.CampaignSpec) (domainCampaign.DispatchResult, error) {
	if err := validations.ValidateCampaignSpec(ctx, spec); err != nil {
		return domainCampaign.DispatchResult{}, err
	}

	_, client, err := s.resolveAccount(ctx, ownerID, spec.AccountID)
	if err != nil {
		return domainCampaign.DispatchResult{}, err
	}

	var blacklisted []string
	if s.blacklist != nil {
		filtered, err := s.blacklist.FilterValid(ctx, spec.Numbers, spec.AccountID)
		if err != nil {
			logrus.WithError(err).Warnf("[CAMPAIGN] Blacklist unavailable, dispatching %d numbers unfiltered", len(spec.Numbers))
		} else {
			blacklisted = filtered.Blacklisted
			spec.Numbers = filtered.Valid
		}
	}
	if len(spec.Numbers) == 0 {
		return domainCampaign.DispatchResult{}, pkgError.ValidationError("every recipient is blacklisted")
	}

	bulk, err := s.builder.BuildBulkRequest(spec)
	if err != nil {
		return domainCampaign.DispatchResult{}, err
	}

	tracked := spec
	tracked.OwnerID = ownerID
	tracked.Numbers = make([]string, len(bulk.Messages))
	for i, m := range bulk.Messages {
		tracked.Numbers[i] = m.Number
	}
	entry := s.registry.Create(tracked)
	logrus.Infof("[CAMPAIGN] Dispatching %s (%d recipients, %d blacklisted) on account %s", entry.ID, len(bulk.Messages), len(blacklisted), spec.AccountID)

	resp, sendErr := client.SendBulk(ctx, bulk)
	if sendErr != nil {
		logrus.WithError(sendErr).Errorf("[CAMPAIGN] Dispatch %s rejected", entry.ID)
		_ = s.registry.Finalize(entry.ID, domainCampaign.StatusCancelled, sendErr.Error())
		s.persist(ctx, ownerID, spec, entry.ID, "", domainCampaign.StatusCancelled, tracked.Numbers)
		s.notify(entry.ID)
		return domainCampaign.DispatchResult{}, sendErr
	}

	status := domainCampaign.StatusCompleted
	if spec.ScheduledFor > s.now().UnixMilli() {
		status = domainCampaign.StatusScheduled
	}
	_ = s.registry.SetFolder(entry.ID, resp.FolderID)
	_ = s.registry.Finalize(entry.ID, status, "")
	s.persist(ctx, ownerID, spec, entry.ID, resp.FolderID, status, tracked.Numbers)
	s.invalidate(spec.AccountID)
	s.notify(entry.ID)

	count := resp.Count.Int()
	if count == 0 {
		count = len(bulk.Messages)
	}
	return domainCampaign.DispatchResult{
		CampaignID:  entry.ID,
		FolderID:    resp.FolderID,
		Count:       count,
		Status:      status,
		Blacklisted: blacklisted,
	}, nil
}

// persist writes the backend row. Failures are logged; the dispatch outcome stands.
func (s *campaignService) persist(ctx context.Context, ownerID string, spec domainCampaign.CampaignSpec, localID, folderID string, status domainCampaign.Status, recipients []string) {
	if s.records == nil {
		return
	}
	rec := &domainCampaign.CampaignRecord{
		OwnerID:    ownerID,
		AccountID:  spec.AccountID,
		FolderID:   folderID,
		LocalID:    localID,
		Name:       spec.Name,
		Status:     string(status),
		Total:      len(recipients),
		Recipients: recipients,
	}
	if spec.Media != nil {
		rec.MediaURL = spec.Media.URL
		rec.MediaType = spec.Media.MimeType
	}
	if spec.ScheduledFor > 0 {
		at := time.UnixMilli(spec.ScheduledFor).UTC()
		rec.ScheduledFor = &at
	}
	if err := s.records.Create(ctx, rec); err != nil {
		logrus.WithError(err).Warnf("[CAMPAIGN] Failed to persist record for %s", localID)
	}
}

func (s *campaignService) notify(id string) {
	if details, err := s.registry.Details(id); err == nil {
		s.notifier.NotifyProgress(details)
	}
}

// Details hides campaigns of other owners behind the same not-found error.
func (s *campaignService) Details(ctx context.Context, ownerID, campaignID string) (domainCampaign.CampaignDetails, error) {
	details, err := s.registry.Details(campaignID)
	if err != nil {
		return domainCampaign.CampaignDetails{}, err
	}
	if details.OwnerID != ownerID {
		return domainCampaign.CampaignDetails{}, pkgError.CampaignNotFound(campaignID)
	}
	return details, nil
}

func (s *campaignService) ListLocal(ctx context.Context, ownerID string) []domainCampaign.CampaignDetails {
	all := s.registry.List()
	out := make([]domainCampaign.CampaignDetails, 0, len(all))
	for _, d := range all {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out
}

func (s *campaignService) ListRemote(ctx context.Context, ownerID, accountID string) ([]domainCampaign.ReconciledCampaign, error) {
	_, client, err := s.resolveAccount(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	return s.listRemote(ctx, ownerID, accountID, client)
}

// listRemote caches the raw records only; reconciliation depends on the
// current time and is always recomputed.
func (s *campaignService) listRemote(ctx context.Context, ownerID, accountID string, client domainGateway.IGatewayClient) ([]domainCampaign.ReconciledCampaign, error) {
	var (
		records []domainGateway.RemoteCampaignRecord
		fresh   bool
	)
	if s.listCache != nil {
		if cached, ok := s.listCache.Get(accountID); ok {
			records = cached.([]domainGateway.RemoteCampaignRecord)
		}
	}
	if records == nil {
		fetched, err := client.ListCampaigns(ctx, "")
		if err != nil {
			return nil, err
		}
		records = fetched
		fresh = true
		if s.listCache != nil {
			s.listCache.SetDefault(accountID, records)
		}
	}

	failed := s.locallyFailed(ctx, ownerID)
	now := s.now()
	out := make([]domainCampaign.ReconciledCampaign, 0, len(records))
	for _, rec := range records {
		rc := Reconcile(rec, now, s.policy)
		if DetectStuck(rc, s.policy) {
			rc.Stuck = true
			rc.Status = domainCampaign.ReconciledFailed
		}
		if failed[rc.Record.ID] {
			rc.Status = domainCampaign.ReconciledFailed
		}
		out = append(out, rc)
		if fresh {
			s.syncRecord(ctx, ownerID, rc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.Created.After(out[j].Record.Created.Time)
	})
	return out, nil
}

// locallyFailed returns the folders the stuck sweep already marked failed, so a
// later pause on the gateway does not resurrect them in listings.
func (s *campaignService) locallyFailed(ctx context.Context, ownerID string) map[string]bool {
	if s.records == nil {
		return nil
	}
	recs, err := s.records.ListByOwner(ctx, ownerID)
	if err != nil {
		logrus.WithError(err).Warn("[CAMPAIGN] Could not load local records")
		return nil
	}
	failed := make(map[string]bool)
	for _, r := range recs {
		if r.Status == string(domainCampaign.ReconciledFailed) && r.FolderID != "" {
			failed[r.FolderID] = true
		}
	}
	return failed
}

func (s *campaignService) syncRecord(ctx context.Context, ownerID string, rc domainCampaign.ReconciledCampaign) {
	if s.records == nil || rc.Record.ID == "" {
		return
	}
	err := s.records.UpdateFromRemote(ctx, ownerID, rc.Record.ID, domainCampaign.RemoteCounters{
		Status:    string(rc.Status),
		Total:     rc.Record.Total.Int(),
		Sent:      rc.Record.Success.Int(),
		Failed:    rc.Record.Failed.Int(),
		Delivered: rc.Record.Delivered.Int(),
		Read:      rc.Record.Read.Int(),
	})
	if err != nil && !errors.Is(err, domainCampaign.ErrCampaignRecordNotFound) {
		logrus.WithError(err).Warnf("[CAMPAIGN] Failed to sync record %s", rc.Record.ID)
	}
}

func (s *campaignService) invalidate(accountID string) {
	if s.listCache != nil {
		s.listCache.Delete(accountID)
	}
}

func (s *campaignService) Pause(ctx context.Context, ownerID, accountID, folderID string) error {
	return s.edit(ctx, ownerID, accountID, folderID, domainCampaign.ReconciledPaused, func(c domainGateway.IGatewayClient) error {
		return c.PauseCampaign(ctx, folderID)
	})
}

func (s *campaignService) Resume(ctx context.Context, ownerID, accountID, folderID string) error {
	return s.edit(ctx, ownerID, accountID, folderID, domainCampaign.ReconciledActive, func(c domainGateway.IGatewayClient) error {
		return c.ResumeCampaign(ctx, folderID)
	})
}

func (s *campaignService) Delete(ctx context.Context, ownerID, accountID, folderID string) error {
	return s.edit(ctx, ownerID, accountID, folderID, domainCampaign.ReconciledCancelled, func(c domainGateway.IGatewayClient) error {
		return c.DeleteCampaign(ctx, folderID)
	})
}

func (s *campaignService) edit(ctx context.Context, ownerID, accountID, folderID string, status domainCampaign.ReconciledStatus, call func(domainGateway.IGatewayClient) error) error {
	if folderID == "" {
		return pkgError.ValidationError("folder_id: cannot be blank.")
	}
	_, client, err := s.resolveAccount(ctx, ownerID, accountID)
	if err != nil {
		return err
	}
	if err := call(client); err != nil {
		return err
	}
	s.invalidate(accountID)
	s.updateRecordStatus(ctx, ownerID, folderID, string(status))
	logrus.Infof("[CAMPAIGN] Folder %s on account %s -> %s", folderID, accountID, status)
	return nil
}

func (s *campaignService) updateRecordStatus(ctx context.Context, ownerID, folderID, status string) {
	if s.records == nil {
		return
	}
	if err := s.records.UpdateStatus(ctx, ownerID, folderID, status); err != nil && !errors.Is(err, domainCampaign.ErrCampaignRecordNotFound) {
		logrus.WithError(err).Warnf("[CAMPAIGN] Failed to update record %s", folderID)
	}
}

// SweepStuck reports every stuck campaign as failed and tries to pause it.
// A failed pause is recorded in the outcome, never returned.
func (s *campaignService) SweepStuck(ctx context.Context, ownerID, accountID string) ([]domainCampaign.StuckCampaign, error) {
	_, client, err := s.resolveAccount(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	s.invalidate(accountID)
	reconciled, err := s.listRemote(ctx, ownerID, accountID, client)
	if err != nil {
		return nil, err
	}

	stuck := []domainCampaign.StuckCampaign{}
	for _, rc := range reconciled {
		if !rc.Stuck {
			continue
		}
		outcome := s.tryPause(ctx, client, rc.Record.ID)
		s.updateRecordStatus(ctx, ownerID, rc.Record.ID, string(domainCampaign.ReconciledFailed))
		stuck = append(stuck, domainCampaign.StuckCampaign{
			Campaign:       rc,
			ProposedStatus: domainCampaign.ReconciledFailed,
			Pause:          outcome,
		})
		logrus.WithFields(logrus.Fields{
			"folder_id": rc.Record.ID,
			"age":       rc.Age.String(),
			"progress":  rc.Progress,
			"paused":    outcome.Succeeded,
		}).Warn("[CAMPAIGN] Stuck campaign marked as failed")
	}
	if len(stuck) > 0 {
		s.invalidate(accountID)
	}
	return stuck, nil
}

func (s *campaignService) tryPause(ctx context.Context, client domainGateway.IGatewayClient, folderID string) domainCampaign.PauseOutcome {
	outcome := domainCampaign.PauseOutcome{Attempted: true}
	if err := client.PauseCampaign(ctx, folderID); err != nil {
		outcome.Error = err.Error()
		logrus.WithError(err).Warnf("[CAMPAIGN] Best-effort pause of %s failed", folderID)
		return outcome
	}
	outcome.Succeeded = true
	return outcome
}

// StartPeriodicSweep runs SweepStuck for every registered account on an interval.
func (s *campaignService) StartPeriodicSweep(ctx context.Context) {
	if s.sweepInterval <= 0 {
		logrus.Info("[CAMPAIGN] Periodic stuck sweep disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepAll(ctx)
			}
		}
	}()
}

func (s *campaignService) sweepAll(ctx context.Context) {
	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("[CAMPAIGN] Sweep could not list accounts")
		return
	}
	for _, acc := range accounts {
		if ctx.Err() != nil {
			return
		}
		stuck, err := s.SweepStuck(ctx, acc.OwnerID, acc.ID)
		if err != nil {
			logrus.WithError(err).Warnf("[CAMPAIGN] Sweep failed for account %s", acc.ID)
			continue
		}
		if len(stuck) > 0 {
			logrus.Infof("[CAMPAIGN] Sweep flagged %d stuck campaigns on account %s", len(stuck), acc.ID)
		}
	}
}

// CollectFailures pages through the failed messages of a folder and adds each
// recipient to the blacklist.
func (s *campaignService) CollectFailures(ctx context.Context, ownerID, accountID, folderID string) (int, error) {
	if folderID == "" {
		return 0, pkgError.ValidationError("folder_id: cannot be blank.")
	}
	if s.blacklist == nil {
		return 0, pkgError.InternalServerError("blacklist is not configured")
	}
	_, client, err := s.resolveAccount(ctx, ownerID, accountID)
	if err != nil {
		return 0, err
	}

	added := 0
	for page := 1; page <= maxFailurePages; page++ {
		resp, err := client.ListMessages(ctx, domainGateway.ListMessagesRequest{
			FolderID:      folderID,
			MessageStatus: failedMessageStatus,
			Page:          page,
			PageSize:      failurePageSize,
		})
		if err != nil {
			return added, err
		}

		for _, msg := range resp.Messages {
			number := utils.NormalizeRecipient(msg.Recipient())
			if number == "" {
				continue
			}
			if _, err := s.blacklist.Add(ctx, number, domainBlacklist.ReasonError, accountID); err != nil {
				logrus.WithError(err).Warnf("[CAMPAIGN] Could not blacklist %s", number)
				continue
			}
			added++
		}

		if len(resp.Messages) == 0 {
			break
		}
		if lastPage := resp.Pagination.LastPage.Int(); lastPage > 0 {
			if page >= lastPage {
				break
			}
		} else if len(resp.Messages) < failurePageSize {
			break
		}
	}
	logrus.Infof("[CAMPAIGN] Collected %d failed recipients from folder %s", added, folderID)
	return added, nil
}
