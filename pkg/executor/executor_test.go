package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

type fakeVerifier struct {
	ok    bool
	state string
	err   error
	calls int
}

func (v *fakeVerifier) VerifyDeletable(_ context.Context, _ models.ResourceRecord) (bool, string, error) {
	v.calls++
	return v.ok, v.state, v.err
}

type fakeBackup struct {
	ref       string
	err       error
	supported bool
	calls     []string
}

func (b *fakeBackup) CreateBackup(_ context.Context, rec models.ResourceRecord) (string, error) {
	b.calls = append(b.calls, rec.ID)
	return b.ref, b.err
}

func (b *fakeBackup) SupportsBackup(models.ResourceKind) bool { return b.supported }

type fakeDestroyer struct {
	err   error
	calls []string
}

func (d *fakeDestroyer) Destroy(_ context.Context, rec models.ResourceRecord) (string, error) {
	d.calls = append(d.calls, rec.ID)
	if d.err != nil {
		return "", d.err
	}
	return "destroyed:" + rec.ID, nil
}

type scriptedConfirmer struct {
	answers []Decision
	asked   int
}

func (c *scriptedConfirmer) Confirm(models.ResourceRecord, *float64) Decision {
	d := c.answers[c.asked]
	c.asked++
	return d
}

func deletableRow(id string) models.Classified {
	created := time.Now().AddDate(0, 0, -120)
	cost := 8.50
	return models.Classified{
		Record: models.ResourceRecord{
			Kind:      models.KindVolume,
			Region:    "us-east-1",
			ID:        id,
			State:     "available",
			CreatedAt: &created,
			Tags:      map[string]string{"env": "dev"},
		},
		Verdict: models.Verdict{
			Disposition:          models.DispositionDelete,
			Reason:               "unattached",
			EstimatedMonthlyCost: &cost,
		},
	}
}

func newTestHarness(opts models.RunOptions, v *fakeVerifier, b *fakeBackup, d *fakeDestroyer, c Confirmer) (*Executor, *bytes.Buffer) {
	var sink bytes.Buffer
	audit := NewAuditLog(&sink, zerolog.Nop())
	return New(opts, v, b, d, c, audit), &sink
}

func TestRunDryRunNeverDestroys(t *testing.T) {
	verifier := &fakeVerifier{ok: true, state: "available"}
	destroyer := &fakeDestroyer{}
	exec, _ := newTestHarness(models.RunOptions{DryRun: true}, verifier, &fakeBackup{}, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeDryRunSimulated, attempts[0].Outcome)
	assert.True(t, strings.HasPrefix(attempts[0].ActionRef, "dry-run-"))
	assert.Empty(t, destroyer.calls)
	assert.Equal(t, 1, verifier.calls, "dry run still verifies state")
}

func TestRunLiveDestroys(t *testing.T) {
	destroyer := &fakeDestroyer{}
	exec, _ := newTestHarness(models.RunOptions{}, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeSucceeded, attempts[0].Outcome)
	assert.Equal(t, "destroyed:vol-1", attempts[0].ActionRef)
	assert.Equal(t, []string{"vol-1"}, destroyer.calls)
}

func TestRunSkipsNonDeleteRows(t *testing.T) {
	row := deletableRow("vol-1")
	row.Verdict.Disposition = models.DispositionReview
	exec, _ := newTestHarness(models.RunOptions{}, &fakeVerifier{ok: true}, &fakeBackup{}, &fakeDestroyer{}, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{row})
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestRunStateGateSkipsGoneResource(t *testing.T) {
	destroyer := &fakeDestroyer{}
	exec, _ := newTestHarness(models.RunOptions{}, &fakeVerifier{ok: false, state: "gone"}, &fakeBackup{}, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeSkipped, attempts[0].Outcome)
	assert.Equal(t, models.ProtectedByState, attempts[0].Protection)
	assert.Contains(t, attempts[0].Reason, `state "gone"`)
	assert.Empty(t, destroyer.calls)
}

func TestRunVerifyErrorFailsClosed(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("throttled")}
	destroyer := &fakeDestroyer{}
	exec, _ := newTestHarness(models.RunOptions{}, verifier, &fakeBackup{}, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeSkipped, attempts[0].Outcome)
	assert.Contains(t, attempts[0].Reason, "could not confirm")
	assert.Empty(t, destroyer.calls)
}

func TestRunAgeGate(t *testing.T) {
	minAge := 365
	opts := models.RunOptions{DryRun: true, MinAgeDaysOverride: &minAge}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, &fakeDestroyer{}, nil)

	young := deletableRow("vol-young")
	unknown := deletableRow("vol-unknown")
	unknown.Record.CreatedAt = nil

	attempts, err := exec.Run(context.Background(), []models.Classified{young, unknown})
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	for _, a := range attempts {
		assert.Equal(t, models.OutcomeSkipped, a.Outcome)
		assert.Equal(t, models.ProtectedByAge, a.Protection)
	}
	assert.Contains(t, attempts[1].Reason, "age unknown")
}

func TestRunTagProtection(t *testing.T) {
	tests := []struct {
		name      string
		patterns  []string
		tags      map[string]string
		protected bool
	}{
		{"bare key match", []string{"keep"}, map[string]string{"keep": "anything"}, true},
		{"key value match", []string{"env=prod"}, map[string]string{"env": "prod"}, true},
		{"key value mismatch", []string{"env=prod"}, map[string]string{"env": "dev"}, false},
		{"no substring matching", []string{"env"}, map[string]string{"environment": "prod"}, false},
		{"no patterns", nil, map[string]string{"env": "prod"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := deletableRow("vol-1")
			row.Record.Tags = tt.tags
			opts := models.RunOptions{DryRun: true, ProtectTagPatterns: tt.patterns}
			exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, &fakeDestroyer{}, nil)

			attempts, err := exec.Run(context.Background(), []models.Classified{row})
			require.NoError(t, err)
			require.Len(t, attempts, 1)

			if tt.protected {
				assert.Equal(t, models.ProtectedByTag, attempts[0].Protection)
				assert.Equal(t, models.OutcomeSkipped, attempts[0].Outcome)
			} else {
				assert.Equal(t, models.Unprotected, attempts[0].Protection)
				assert.Equal(t, models.OutcomeDryRunSimulated, attempts[0].Outcome)
			}
		})
	}
}

func TestRunInteractiveDecline(t *testing.T) {
	confirmer := &scriptedConfirmer{answers: []Decision{DecisionNo, DecisionYes}}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{Interactive: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, destroyer, confirmer)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1"), deletableRow("vol-2")})
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	assert.Equal(t, models.OutcomeSkipped, attempts[0].Outcome)
	assert.Equal(t, "declined by operator", attempts[0].Reason)
	assert.Equal(t, models.OutcomeSucceeded, attempts[1].Outcome)
	assert.Equal(t, []string{"vol-2"}, destroyer.calls)
}

func TestRunInteractiveQuitStopsRun(t *testing.T) {
	confirmer := &scriptedConfirmer{answers: []Decision{DecisionQuit}}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{Interactive: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, destroyer, confirmer)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1"), deletableRow("vol-2"), deletableRow("vol-3")})
	require.NoError(t, err)
	require.Len(t, attempts, 1, "quit halts intake after the current resource")

	assert.Equal(t, models.OutcomeSkipped, attempts[0].Outcome)
	assert.Equal(t, "run aborted by operator", attempts[0].Reason)
	assert.Empty(t, destroyer.calls)
	assert.Equal(t, 1, confirmer.asked)
}

func TestRunBackupBeforeDestroy(t *testing.T) {
	backup := &fakeBackup{ref: "snap-backup-1", supported: true}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{BackupBeforeDelete: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, backup, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeSucceeded, attempts[0].Outcome)
	assert.Equal(t, "snap-backup-1", attempts[0].BackupRef)
	assert.Equal(t, []string{"vol-1"}, backup.calls)
	assert.Equal(t, []string{"vol-1"}, destroyer.calls)
}

func TestRunBackupFailureBlocksDestroy(t *testing.T) {
	backup := &fakeBackup{err: errors.New("snapshot quota exceeded"), supported: true}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{BackupBeforeDelete: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, backup, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeFailed, attempts[0].Outcome)
	assert.Equal(t, "backup", attempts[0].FailureStage)
	assert.Empty(t, destroyer.calls, "no destroy without a confirmed backup")
}

func TestRunUnconfirmedBackupBlocksDestroy(t *testing.T) {
	backup := &fakeBackup{ref: "", supported: true}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{BackupBeforeDelete: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, backup, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeFailed, attempts[0].Outcome)
	assert.Equal(t, "backup", attempts[0].FailureStage)
	assert.Empty(t, destroyer.calls)
}

func TestRunBackupSkippedForUnsupportedKind(t *testing.T) {
	backup := &fakeBackup{ref: "never-used", supported: false}
	destroyer := &fakeDestroyer{}
	opts := models.RunOptions{BackupBeforeDelete: true}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, backup, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1")})
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	assert.Equal(t, models.OutcomeSucceeded, attempts[0].Outcome)
	assert.Empty(t, attempts[0].BackupRef)
	assert.Empty(t, backup.calls)
}

func TestRunDestroyFailureDoesNotAbortBatch(t *testing.T) {
	destroyer := &fakeDestroyer{err: errors.New("dependency violation")}
	exec, _ := newTestHarness(models.RunOptions{}, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, destroyer, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1"), deletableRow("vol-2")})
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	for _, a := range attempts {
		assert.Equal(t, models.OutcomeFailed, a.Outcome)
		assert.Equal(t, "destroy", a.FailureStage)
	}
}

func TestRunMaxResourcesCap(t *testing.T) {
	max := 2
	opts := models.RunOptions{DryRun: true, MaxResources: &max}
	exec, _ := newTestHarness(opts, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, &fakeDestroyer{}, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{
		deletableRow("vol-1"), deletableRow("vol-2"), deletableRow("vol-3"),
	})
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestRunWritesOneAuditEntryPerAttempt(t *testing.T) {
	exec, sink := newTestHarness(models.RunOptions{DryRun: true}, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, &fakeDestroyer{}, nil)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1"), deletableRow("vol-2")})
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	lines := strings.Split(strings.TrimSpace(sink.String()), "\n")
	require.Len(t, lines, 2)

	for i, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.NotEmpty(t, entry["run_id"])
		assert.Equal(t, string(attempts[i].Outcome), entry["outcome"])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRunStopsWhenAuditAppendFails(t *testing.T) {
	audit := NewAuditLog(failingWriter{}, zerolog.Nop())
	exec := New(models.RunOptions{DryRun: true}, &fakeVerifier{ok: true, state: "available"}, &fakeBackup{}, &fakeDestroyer{}, nil, audit)

	attempts, err := exec.Run(context.Background(), []models.Classified{deletableRow("vol-1"), deletableRow("vol-2")})
	require.Error(t, err)
	assert.Len(t, attempts, 1)
}
