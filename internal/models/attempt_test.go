package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cost(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	attempts := []DeletionAttempt{
		{Outcome: OutcomeSucceeded, EstimatedMonthlyCost: cost(10)},
		{Outcome: OutcomeDryRunSimulated, EstimatedMonthlyCost: cost(5)},
		{Outcome: OutcomeSkipped, Protection: ProtectedByTag, EstimatedMonthlyCost: cost(100)},
		{Outcome: OutcomeFailed, FailureStage: "backup", EstimatedMonthlyCost: cost(50)},
		{Outcome: OutcomeFailed, FailureStage: "destroy"},
		{Outcome: OutcomeSucceeded},
	}

	s := Summarize(attempts)

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.DryRunSimulated)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.ProtectedByTag)
	assert.Equal(t, 1, s.BackupFailures)
	assert.InDelta(t, 15.0, s.EstimatedSavings, 0.001, "savings exclude skipped and failed attempts")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Succeeded)
	assert.Zero(t, s.EstimatedSavings)
}
