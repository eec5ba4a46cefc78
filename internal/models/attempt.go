package models

import "time"

// ProtectionState records which safety gate, if any, shielded a resource.
type ProtectionState string

const (
	Unprotected      ProtectionState = "Unprotected"
	ProtectedByTag   ProtectionState = "ProtectedByTag"
	ProtectedByAge   ProtectionState = "ProtectedByAge"
	ProtectedByState ProtectionState = "ProtectedByState"
)

// Outcome is the terminal result of one deletion attempt.
type Outcome string

const (
	OutcomeSkipped         Outcome = "Skipped"
	OutcomeDryRunSimulated Outcome = "DryRunSimulated"
	OutcomeSucceeded       Outcome = "Succeeded"
	OutcomeFailed          Outcome = "Failed"
)

// DeletionAttempt is the audit record for one resource the executor
// processed. It is terminal once Outcome is set and is never updated after
// being appended to the audit trail.
type DeletionAttempt struct {
	Record               ResourceRecord  `json:"record"`
	EstimatedMonthlyCost *float64        `json:"estimated_monthly_cost,omitempty"`
	Protection           ProtectionState `json:"protection"`
	BackupRef            string          `json:"backup_ref,omitempty"`
	ActionRef            string          `json:"action_ref,omitempty"` // provider or synthetic id of the destructive action
	Outcome              Outcome         `json:"outcome"`
	FailureStage         string          `json:"failure_stage,omitempty"` // "backup" or "destroy"
	FailureReason        string          `json:"failure_reason,omitempty"`
	Reason               string          `json:"reason,omitempty"`
	Timestamp            time.Time       `json:"timestamp"`
}

// RunOptions selects the executor mode and safety settings for one run.
// Modes are mutually exclusive per run, never per resource.
type RunOptions struct {
	DryRun             bool
	Interactive        bool
	BackupBeforeDelete bool
	ProtectTagPatterns []string // "key" or "key=value", matched exactly against parsed tags
	MinAgeDaysOverride *int
	MaxResources       *int
}

// RunSummary tallies attempt outcomes. It is derived by folding over the
// attempt slice at the end of a run, not accumulated in mutable counters.
type RunSummary struct {
	Skipped          int
	DryRunSimulated  int
	Succeeded        int
	Failed           int
	ProtectedByTag   int
	BackupFailures   int
	EstimatedSavings float64 // sum of estimates over Succeeded and DryRunSimulated
}

// Summarize folds a sequence of attempts into a RunSummary.
func Summarize(attempts []DeletionAttempt) RunSummary {
	var s RunSummary
	for _, a := range attempts {
		switch a.Outcome {
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeDryRunSimulated:
			s.DryRunSimulated++
		case OutcomeSucceeded:
			s.Succeeded++
		case OutcomeFailed:
			s.Failed++
		}
		if a.Protection == ProtectedByTag {
			s.ProtectedByTag++
		}
		if a.Outcome == OutcomeFailed && a.FailureStage == "backup" {
			s.BackupFailures++
		}
		if a.Outcome == OutcomeSucceeded || a.Outcome == OutcomeDryRunSimulated {
			if a.EstimatedMonthlyCost != nil {
				s.EstimatedSavings += *a.EstimatedMonthlyCost
			}
		}
	}
	return s
}
