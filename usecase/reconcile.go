package usecase

import (
	"strings"
	"time"
	"unicode"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The gateway fills the status field inconsistently: several casings,
// English and Portuguese, with and without accents. Keys are already folded.
var statusVocabulary = map[string]domainCampaign.StatusBucket{
	"active":       domainCampaign.BucketActive,
	"running":      domainCampaign.BucketActive,
	"sending":      domainCampaign.BucketActive,
	"in_progress":  domainCampaign.BucketActive,
	"processing":   domainCampaign.BucketActive,
	"started":      domainCampaign.BucketActive,
	"ativo":        domainCampaign.BucketActive,
	"ativa":        domainCampaign.BucketActive,
	"enviando":     domainCampaign.BucketActive,
	"em_andamento": domainCampaign.BucketActive,
	"executando":   domainCampaign.BucketActive,
	"processando":  domainCampaign.BucketActive,
	"rodando":      domainCampaign.BucketActive,

	"done":       domainCampaign.BucketDone,
	"completed":  domainCampaign.BucketDone,
	"complete":   domainCampaign.BucketDone,
	"finished":   domainCampaign.BucketDone,
	"archived":   domainCampaign.BucketDone,
	"sent":       domainCampaign.BucketDone,
	"concluido":  domainCampaign.BucketDone,
	"concluida":  domainCampaign.BucketDone,
	"finalizado": domainCampaign.BucketDone,
	"finalizada": domainCampaign.BucketDone,
	"arquivado":  domainCampaign.BucketDone,
	"arquivada":  domainCampaign.BucketDone,
	"enviado":    domainCampaign.BucketDone,
	"enviada":    domainCampaign.BucketDone,

	"paused":  domainCampaign.BucketPaused,
	"pause":   domainCampaign.BucketPaused,
	"stopped": domainCampaign.BucketPaused,
	"pausado": domainCampaign.BucketPaused,
	"pausada": domainCampaign.BucketPaused,
	"parado":  domainCampaign.BucketPaused,
	"parada":  domainCampaign.BucketPaused,

	"cancelled": domainCampaign.BucketCancelled,
	"canceled":  domainCampaign.BucketCancelled,
	"deleted":   domainCampaign.BucketCancelled,
	"deleting":  domainCampaign.BucketCancelled,
	"cancelado": domainCampaign.BucketCancelled,
	"cancelada": domainCampaign.BucketCancelled,
	"excluido":  domainCampaign.BucketCancelled,
	"excluida":  domainCampaign.BucketCancelled,
	"deletado":  domainCampaign.BucketCancelled,

	"failed":  domainCampaign.BucketFailed,
	"failure": domainCampaign.BucketFailed,
	"error":   domainCampaign.BucketFailed,
	"falhou":  domainCampaign.BucketFailed,
	"falha":   domainCampaign.BucketFailed,
	"erro":    domainCampaign.BucketFailed,

	"scheduled":  domainCampaign.BucketScheduled,
	"pending":    domainCampaign.BucketScheduled,
	"queued":     domainCampaign.BucketScheduled,
	"waiting":    domainCampaign.BucketScheduled,
	"agendado":   domainCampaign.BucketScheduled,
	"agendada":   domainCampaign.BucketScheduled,
	"pendente":   domainCampaign.BucketScheduled,
	"aguardando": domainCampaign.BucketScheduled,
	"na_fila":    domainCampaign.BucketScheduled,
}

// foldStatus lowercases, strips diacritics and joins words with underscores.
func foldStatus(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

// NormalizeRemoteStatus maps the gateway's free-text status onto a bucket.
func NormalizeRemoteStatus(raw string) domainCampaign.StatusBucket {
	if bucket, ok := statusVocabulary[foldStatus(raw)]; ok {
		return bucket
	}
	return domainCampaign.BucketUnknown
}

// Classify applies the decision procedure in priority order:
// active check, then completed check, then the bucket fallback.
func Classify(sig domainCampaign.Signals, policy domainCampaign.Policy) domainCampaign.ReconciledStatus {
	progress := ProgressPercent(sig.Processed, sig.Total)

	if sig.Total > 0 && sig.Processed < sig.Total {
		if sig.Bucket == domainCampaign.BucketActive || sig.Age < policy.ActiveWindow {
			return domainCampaign.ReconciledActive
		}
	}

	if sig.Age >= policy.CompletionGrace {
		fullyProcessed := sig.Total > 0 && sig.Processed >= sig.Total && progress >= 100
		longRunning := sig.Age > policy.LongRunningAfter && progress >= policy.LongRunningProgress
		if fullyProcessed || longRunning || sig.Bucket == domainCampaign.BucketDone {
			return domainCampaign.ReconciledCompleted
		}
	}

	switch sig.Bucket {
	case domainCampaign.BucketPaused:
		return domainCampaign.ReconciledPaused
	case domainCampaign.BucketCancelled:
		return domainCampaign.ReconciledCancelled
	case domainCampaign.BucketFailed:
		return domainCampaign.ReconciledFailed
	case domainCampaign.BucketScheduled:
		return domainCampaign.ReconciledScheduled
	case domainCampaign.BucketActive, domainCampaign.BucketDone:
		// done inside the grace window is not trusted yet
		return domainCampaign.ReconciledActive
	default:
		return domainCampaign.ReconciledScheduled
	}
}

// Reconcile turns a raw remote record into the status shown to the operator.
// It never fails.
func Reconcile(record domainGateway.RemoteCampaignRecord, now time.Time, policy domainCampaign.Policy) domainCampaign.ReconciledCampaign {
	total := record.Total.Int()
	processed := record.Success.Int() + record.Failed.Int()

	// A missing or future timestamp counts as brand new.
	var age time.Duration
	if !record.Created.IsZero() {
		age = now.Sub(record.Created.Time)
		if age < 0 {
			age = 0
		}
	}

	bucket := NormalizeRemoteStatus(record.Status)
	status := Classify(domainCampaign.Signals{
		Age:       age,
		Total:     total,
		Processed: processed,
		Bucket:    bucket,
	}, policy)

	unrecognized := bucket == domainCampaign.BucketUnknown
	if unrecognized {
		logrus.WithFields(logrus.Fields{
			"folder_id":  record.ID,
			"raw_status": record.Status,
			"resolved":   status,
		}).Warn("[RECONCILE] Unrecognized remote status")
	}

	return domainCampaign.ReconciledCampaign{
		Record:       record,
		Status:       status,
		Progress:     ProgressPercent(processed, total),
		Bucket:       bucket,
		Unrecognized: unrecognized,
		Age:          age,
	}
}

// DetectStuck flags an active campaign that has been running far too long
// with next to no progress.
func DetectStuck(rc domainCampaign.ReconciledCampaign, policy domainCampaign.Policy) bool {
	if rc.Status != domainCampaign.ReconciledActive {
		return false
	}
	if rc.Age > policy.StuckAfter && rc.Progress < policy.StuckProgress {
		return true
	}
	return rc.Age > policy.AbandonedAfter && rc.Progress == 0
}
