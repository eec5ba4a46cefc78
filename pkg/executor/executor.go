// Package executor runs the guarded deletion pipeline over resources the
// classifier marked DELETE. Every resource passes a fixed gate order:
// state validity, age, tag protection, confirmation, backup, destructive
// action. The first failing gate decides the outcome, a backup must be
// confirmed before anything irreversible happens, and one resource's
// failure never aborts the batch.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// StateVerifier re-checks that a resource still exists in a deletable
// state at execution time.
type StateVerifier interface {
	VerifyDeletable(ctx context.Context, rec models.ResourceRecord) (bool, string, error)
}

// BackupCreator creates a recovery artifact for a resource and returns its
// identifier. An empty identifier without error means the backup could not
// be confirmed and the resource must not be deleted.
type BackupCreator interface {
	CreateBackup(ctx context.Context, rec models.ResourceRecord) (string, error)
	// SupportsBackup reports whether the kind has backupable state. Kinds
	// without data to lose (an unassociated address, an empty bucket)
	// proceed without an artifact.
	SupportsBackup(kind models.ResourceKind) bool
}

// Destroyer performs the irreversible provider action for a resource.
type Destroyer interface {
	Destroy(ctx context.Context, rec models.ResourceRecord) (string, error)
}

// Decision is an interactive confirmation response.
type Decision int

const (
	DecisionYes Decision = iota
	DecisionNo
	DecisionQuit
)

// Confirmer asks the operator to approve one deletion.
type Confirmer interface {
	Confirm(rec models.ResourceRecord, cost *float64) Decision
}

// Executor applies the gate pipeline to DELETE-classified resources, in
// input order, and appends one audit entry per attempt.
type Executor struct {
	opts     models.RunOptions
	verifier StateVerifier
	backup   BackupCreator
	destroy  Destroyer
	confirm  Confirmer
	audit    *AuditLog
	now      func() time.Time
}

// New builds an Executor. confirm may be nil when opts.Interactive is false.
func New(opts models.RunOptions, verifier StateVerifier, backup BackupCreator, destroy Destroyer, confirm Confirmer, audit *AuditLog) *Executor {
	return &Executor{
		opts:     opts,
		verifier: verifier,
		backup:   backup,
		destroy:  destroy,
		confirm:  confirm,
		audit:    audit,
		now:      time.Now,
	}
}

// Run processes rows in order and returns every attempt made. Processing
// stops early only on an interactive quit or a cap from MaxResources;
// completed attempts are never rolled back.
func (e *Executor) Run(ctx context.Context, rows []models.Classified) ([]models.DeletionAttempt, error) {
	attempts := make([]models.DeletionAttempt, 0, len(rows))

	for _, row := range rows {
		if row.Verdict.Disposition != models.DispositionDelete {
			continue
		}
		if e.opts.MaxResources != nil && len(attempts) >= *e.opts.MaxResources {
			break
		}

		attempt, quit := e.process(ctx, row)
		attempts = append(attempts, attempt)
		if err := e.audit.Append(attempt); err != nil {
			return attempts, fmt.Errorf("audit log append failed: %w", err)
		}
		if quit {
			break
		}
	}

	return attempts, nil
}

// process runs the gate pipeline for one resource. The returned bool is
// true when the operator asked to quit.
func (e *Executor) process(ctx context.Context, row models.Classified) (models.DeletionAttempt, bool) {
	rec := row.Record
	attempt := models.DeletionAttempt{
		Record:               rec,
		EstimatedMonthlyCost: row.Verdict.EstimatedMonthlyCost,
		Protection:           models.Unprotected,
		Timestamp:            e.now(),
	}

	// Gate 1: the resource must still be in a deletable state. A verify
	// error counts as "cannot confirm" and fails closed.
	ok, state, err := e.verifier.VerifyDeletable(ctx, rec)
	if err != nil {
		attempt.Protection = models.ProtectedByState
		attempt.Outcome = models.OutcomeSkipped
		attempt.Reason = fmt.Sprintf("could not confirm resource state: %v", err)
		return attempt, false
	}
	if !ok {
		attempt.Protection = models.ProtectedByState
		attempt.Outcome = models.OutcomeSkipped
		attempt.Reason = fmt.Sprintf("resource no longer deletable (state %q)", state)
		return attempt, false
	}

	// Gate 2: minimum age, when an override is set. Unknown ages fail
	// closed.
	if e.opts.MinAgeDaysOverride != nil {
		age := rec.AgeDays(e.now())
		if age == nil {
			attempt.Protection = models.ProtectedByAge
			attempt.Outcome = models.OutcomeSkipped
			attempt.Reason = fmt.Sprintf("age unknown, minimum age %d days required", *e.opts.MinAgeDaysOverride)
			return attempt, false
		}
		if *age < *e.opts.MinAgeDaysOverride {
			attempt.Protection = models.ProtectedByAge
			attempt.Outcome = models.OutcomeSkipped
			attempt.Reason = fmt.Sprintf("only %d days old, minimum age is %d days", *age, *e.opts.MinAgeDaysOverride)
			return attempt, false
		}
	}

	// Gate 3: tag protection, exact key or key=value match on parsed tags.
	if key, val, protected := matchProtectedTag(rec.Tags, e.opts.ProtectTagPatterns); protected {
		attempt.Protection = models.ProtectedByTag
		attempt.Outcome = models.OutcomeSkipped
		if val == "" {
			attempt.Reason = fmt.Sprintf("protected by tag %q", key)
		} else {
			attempt.Reason = fmt.Sprintf("protected by tag %q=%q", key, val)
		}
		return attempt, false
	}

	// Gate 4: per-resource confirmation in interactive mode.
	if e.opts.Interactive && e.confirm != nil {
		switch e.confirm.Confirm(rec, row.Verdict.EstimatedMonthlyCost) {
		case DecisionNo:
			attempt.Outcome = models.OutcomeSkipped
			attempt.Reason = "declined by operator"
			return attempt, false
		case DecisionQuit:
			attempt.Outcome = models.OutcomeSkipped
			attempt.Reason = "run aborted by operator"
			return attempt, true
		}
	}

	// Gate 5: backup must complete, and be confirmed, before anything
	// irreversible. Kinds with nothing to back up proceed without one.
	if e.opts.BackupBeforeDelete && e.backup.SupportsBackup(rec.Kind) {
		ref, err := e.backup.CreateBackup(ctx, rec)
		if err != nil {
			attempt.Outcome = models.OutcomeFailed
			attempt.FailureStage = "backup"
			attempt.FailureReason = err.Error()
			return attempt, false
		}
		if ref == "" {
			attempt.Outcome = models.OutcomeFailed
			attempt.FailureStage = "backup"
			attempt.FailureReason = "backup accepted but completion could not be confirmed"
			return attempt, false
		}
		attempt.BackupRef = ref
	}

	// Final step: the destructive action, or its dry-run stand-in. Every
	// gate above ran identically in both modes.
	if e.opts.DryRun {
		attempt.Outcome = models.OutcomeDryRunSimulated
		attempt.ActionRef = "dry-run-" + uuid.NewString()
		attempt.Reason = "dry run, no action taken"
		return attempt, false
	}

	ref, err := e.destroy.Destroy(ctx, rec)
	if err != nil {
		attempt.Outcome = models.OutcomeFailed
		attempt.FailureStage = "destroy"
		attempt.FailureReason = err.Error()
		return attempt, false
	}
	attempt.Outcome = models.OutcomeSucceeded
	attempt.ActionRef = ref
	return attempt, false
}

// matchProtectedTag checks resource tags against protection patterns.
// A pattern is either a bare key or key=value; both match exactly against
// the parsed tag map, never by substring.
func matchProtectedTag(tags map[string]string, patterns []string) (string, string, bool) {
	for _, p := range patterns {
		key, val, hasValue := splitPattern(p)
		got, ok := tags[key]
		if !ok {
			continue
		}
		if !hasValue || got == val {
			return key, val, true
		}
	}
	return "", "", false
}

func splitPattern(p string) (key, val string, hasValue bool) {
	for i := 0; i < len(p); i++ {
		if p[i] == '=' {
			return p[:i], p[i+1:], true
		}
	}
	return p, "", false
}
