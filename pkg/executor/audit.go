package executor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// AuditLog is the append-only trail of deletion attempts. Each attempt is
// written exactly once, as a JSON line for machines and a structured
// console line for humans. Appends are serialized so concurrent callers
// can never interleave entries.
type AuditLog struct {
	mu      sync.Mutex
	sink    io.Writer
	closer  io.Closer
	console zerolog.Logger
	runID   string
}

// auditEntry is the machine-readable form of one attempt.
type auditEntry struct {
	RunID string `json:"run_id"`
	models.DeletionAttempt
}

// NewAuditLog writes machine entries to sink and human lines through
// console.
func NewAuditLog(sink io.Writer, console zerolog.Logger) *AuditLog {
	return &AuditLog{
		sink:    sink,
		console: console,
		runID:   uuid.NewString(),
	}
}

// OpenAuditLog appends to the audit file at path, creating it if needed,
// with human-readable output on stderr.
func OpenAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening audit log %s: %w", path, err)
	}
	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	l := NewAuditLog(f, console)
	l.closer = f
	return l, nil
}

// RunID identifies this run in every audit entry.
func (l *AuditLog) RunID() string { return l.runID }

// Append records one attempt. The JSON line must reach the sink; a write
// failure is returned so the caller can stop rather than delete without a
// trail.
func (l *AuditLog) Append(a models.DeletionAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(auditEntry{RunID: l.runID, DeletionAttempt: a})
	if err != nil {
		return fmt.Errorf("error encoding audit entry: %w", err)
	}
	if _, err := l.sink.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("error writing audit entry: %w", err)
	}

	evt := l.console.Info().
		Str("kind", string(a.Record.Kind)).
		Str("region", a.Record.Region).
		Str("id", a.Record.ID).
		Str("outcome", string(a.Outcome)).
		Str("protection", string(a.Protection))
	if a.BackupRef != "" {
		evt = evt.Str("backup_ref", a.BackupRef)
	}
	if a.ActionRef != "" {
		evt = evt.Str("action_ref", a.ActionRef)
	}
	if a.Reason != "" {
		evt = evt.Str("reason", a.Reason)
	}
	if a.FailureReason != "" {
		evt = evt.Str("failure", a.FailureReason).Str("stage", a.FailureStage)
	}
	if a.EstimatedMonthlyCost != nil {
		evt = evt.Float64("est_monthly_cost", *a.EstimatedMonthlyCost)
	}
	evt.Msg("deletion attempt")

	return nil
}

// Close releases the underlying file, if any.
func (l *AuditLog) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
