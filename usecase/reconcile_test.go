package usecase

import (
	"math/rand/v2"
	"testing"
	"time"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	"github.com/stretchr/testify/assert"
)

var reconcileNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func remoteRecord(status string, total, success, failed int, age time.Duration) domainGateway.RemoteCampaignRecord {
	return domainGateway.RemoteCampaignRecord{
		ID:      "folder-1",
		Status:  status,
		Total:   domainGateway.FlexInt(total),
		Success: domainGateway.FlexInt(success),
		Failed:  domainGateway.FlexInt(failed),
		Created: domainGateway.FlexTime{Time: reconcileNow.Add(-age)},
	}
}

func TestNormalizeRemoteStatus(t *testing.T) {
	cases := map[string]domainCampaign.StatusBucket{
		"running":      domainCampaign.BucketActive,
		"Active":       domainCampaign.BucketActive,
		"  SENDING ":   domainCampaign.BucketActive,
		"Em Andamento": domainCampaign.BucketActive,
		"in-progress":  domainCampaign.BucketActive,
		"Done":         domainCampaign.BucketDone,
		"Concluído":    domainCampaign.BucketDone,
		"archived":     domainCampaign.BucketDone,
		"Pausado":      domainCampaign.BucketPaused,
		"stopped":      domainCampaign.BucketPaused,
		"Canceled":     domainCampaign.BucketCancelled,
		"excluído":     domainCampaign.BucketCancelled,
		"FALHOU":       domainCampaign.BucketFailed,
		"Agendada":     domainCampaign.BucketScheduled,
		"na fila":      domainCampaign.BucketScheduled,
		"xyz_unknown":  domainCampaign.BucketUnknown,
		"":             domainCampaign.BucketUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeRemoteStatus(raw), raw)
	}
}

func TestReconcile_FreshRunningCampaignIsActive(t *testing.T) {
	rc := Reconcile(remoteRecord("running", 100, 40, 10, 2*time.Minute), reconcileNow, domainCampaign.DefaultPolicy())

	assert.Equal(t, domainCampaign.ReconciledActive, rc.Status)
	assert.Equal(t, 50, rc.Progress)
	assert.False(t, rc.Unrecognized)
}

func TestReconcile_FullyProcessedAfterGraceIsCompleted(t *testing.T) {
	rc := Reconcile(remoteRecord("running", 100, 100, 0, 10*time.Minute), reconcileNow, domainCampaign.DefaultPolicy())

	assert.Equal(t, domainCampaign.ReconciledCompleted, rc.Status)
	assert.Equal(t, 100, rc.Progress)
}

func TestReconcile_UnknownStatusFallsBackToScheduled(t *testing.T) {
	rc := Reconcile(remoteRecord("xyz_unknown", 10, 0, 0, time.Hour), reconcileNow, domainCampaign.DefaultPolicy())

	assert.Equal(t, domainCampaign.ReconciledScheduled, rc.Status)
	assert.Equal(t, 0, rc.Progress)
	assert.True(t, rc.Unrecognized)
	assert.Equal(t, domainCampaign.BucketUnknown, rc.Bucket)
}

func TestReconcile_NeverCompletesInsideGraceWindow(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()
	rng := rand.New(rand.NewPCG(3, 4))
	statuses := []string{"running", "done", "Concluído", "paused", "failed", "scheduled", "xyz", ""}

	for i := 0; i < 2000; i++ {
		total := rng.IntN(200)
		success := rng.IntN(total + 50)
		failed := rng.IntN(total + 50)
		age := time.Duration(rng.Int64N(int64(policy.CompletionGrace)))
		status := statuses[rng.IntN(len(statuses))]

		rc := Reconcile(remoteRecord(status, total, success, failed, age), reconcileNow, policy)
		if rc.Status == domainCampaign.ReconciledCompleted {
			t.Fatalf("record %q total=%d success=%d failed=%d age=%s classified completed", status, total, success, failed, age)
		}
	}
}

func TestClassify_ActiveCheckPrecedesCompletedCheck(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()

	// 96% after 7h would satisfy the long-running completion heuristic.
	sig := domainCampaign.Signals{
		Age:       7 * time.Hour,
		Total:     100,
		Processed: 96,
		Bucket:    NormalizeRemoteStatus("running"),
	}
	assert.Equal(t, domainCampaign.ReconciledActive, Classify(sig, policy))

	sig.Bucket = domainCampaign.BucketUnknown
	assert.Equal(t, domainCampaign.ReconciledCompleted, Classify(sig, policy))
}

func TestClassify_Fallbacks(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()
	old := 2 * time.Hour

	tests := []struct {
		name string
		sig  domainCampaign.Signals
		want domainCampaign.ReconciledStatus
	}{
		{"young partial campaign is active regardless of status", domainCampaign.Signals{Age: 30 * time.Minute, Total: 10, Processed: 2, Bucket: domainCampaign.BucketPaused}, domainCampaign.ReconciledActive},
		{"paused", domainCampaign.Signals{Age: old, Total: 10, Processed: 2, Bucket: domainCampaign.BucketPaused}, domainCampaign.ReconciledPaused},
		{"cancelled", domainCampaign.Signals{Age: old, Total: 10, Processed: 2, Bucket: domainCampaign.BucketCancelled}, domainCampaign.ReconciledCancelled},
		{"failed", domainCampaign.Signals{Age: old, Total: 10, Processed: 2, Bucket: domainCampaign.BucketFailed}, domainCampaign.ReconciledFailed},
		{"scheduled", domainCampaign.Signals{Age: old, Total: 10, Processed: 0, Bucket: domainCampaign.BucketScheduled}, domainCampaign.ReconciledScheduled},
		{"done vocabulary after grace", domainCampaign.Signals{Age: old, Total: 10, Processed: 2, Bucket: domainCampaign.BucketDone}, domainCampaign.ReconciledCompleted},
		{"done vocabulary with empty counters", domainCampaign.Signals{Age: old, Total: 0, Processed: 0, Bucket: domainCampaign.BucketDone}, domainCampaign.ReconciledCompleted},
		{"done vocabulary inside grace", domainCampaign.Signals{Age: time.Minute, Total: 0, Bucket: domainCampaign.BucketDone}, domainCampaign.ReconciledActive},
		{"fully processed inside grace", domainCampaign.Signals{Age: time.Minute, Total: 10, Processed: 10, Bucket: domainCampaign.BucketUnknown}, domainCampaign.ReconciledScheduled},
		{"empty active campaign", domainCampaign.Signals{Age: old, Total: 0, Bucket: domainCampaign.BucketActive}, domainCampaign.ReconciledActive},
		{"long running near complete", domainCampaign.Signals{Age: 7 * time.Hour, Total: 100, Processed: 95, Bucket: domainCampaign.BucketPaused}, domainCampaign.ReconciledCompleted},
		{"long running far from complete", domainCampaign.Signals{Age: 7 * time.Hour, Total: 100, Processed: 50, Bucket: domainCampaign.BucketUnknown}, domainCampaign.ReconciledScheduled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sig, policy))
		})
	}
}

func TestClassify_UsesConfiguredPolicy(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()
	policy.ActiveWindow = 0
	policy.CompletionGrace = 0

	sig := domainCampaign.Signals{Age: time.Second, Total: 10, Processed: 10, Bucket: domainCampaign.BucketUnknown}
	assert.Equal(t, domainCampaign.ReconciledCompleted, Classify(sig, policy))
}

func TestReconcile_MissingOrFutureTimestampCountsAsFresh(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()

	rec := remoteRecord("done", 10, 10, 0, 0)
	rec.Created = domainGateway.FlexTime{}
	rc := Reconcile(rec, reconcileNow, policy)
	assert.Equal(t, time.Duration(0), rc.Age)
	assert.NotEqual(t, domainCampaign.ReconciledCompleted, rc.Status)

	rc = Reconcile(remoteRecord("done", 10, 10, 0, -time.Hour), reconcileNow, policy)
	assert.Equal(t, time.Duration(0), rc.Age)
}

func TestDetectStuck(t *testing.T) {
	policy := domainCampaign.DefaultPolicy()

	tests := []struct {
		name  string
		rc    domainCampaign.ReconciledCampaign
		stuck bool
	}{
		{"active 73h at 4%", domainCampaign.ReconciledCampaign{Status: domainCampaign.ReconciledActive, Age: 73 * time.Hour, Progress: 4}, true},
		{"active 73h at 5%", domainCampaign.ReconciledCampaign{Status: domainCampaign.ReconciledActive, Age: 73 * time.Hour, Progress: 5}, false},
		{"active 71h at 0%", domainCampaign.ReconciledCampaign{Status: domainCampaign.ReconciledActive, Age: 71 * time.Hour, Progress: 0}, false},
		{"active 97h at 0%", domainCampaign.ReconciledCampaign{Status: domainCampaign.ReconciledActive, Age: 97 * time.Hour, Progress: 0}, true},
		{"paused 100h at 0%", domainCampaign.ReconciledCampaign{Status: domainCampaign.ReconciledPaused, Age: 100 * time.Hour, Progress: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stuck, DetectStuck(tt.rc, policy))
		})
	}
}
