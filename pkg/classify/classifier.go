// Package classify turns resource records and utilization metrics into
// delete/review/keep verdicts. Classification is a pure function of the
// record, the threshold config, and the scan timestamp: no cross-resource
// state, no ordering dependency, and missing data always fails closed
// toward the less destructive verdict.
package classify

import (
	"fmt"
	"time"

	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/pricing"
)

// natLowTrafficBytes is the trailing-window byte count below which a NAT
// gateway is flagged for review.
const natLowTrafficBytes = 1_000_000

// functionIdleMinDays is the minimum age before an idle function is
// eligible for deletion.
const functionIdleMinDays = 90

// smallBucketGB is the size under which an aged bucket is flagged for
// review even when not empty.
const smallBucketGB = 0.1

// Lifecycle states that mean the provider is already removing the
// resource; such records are ignored outright.
var ignoredStates = map[string]bool{
	"terminated":    true,
	"shutting-down": true,
	"deleting":      true,
	"deleted":       true,
	"removed":       true,
	"released":      true,
}

// Classifier evaluates one resource at a time against a fixed threshold
// config. Safe for concurrent use.
type Classifier struct {
	cfg models.ThresholdConfig
	est *pricing.Estimator
	now time.Time
}

// New returns a Classifier evaluating ages against the current time.
func New(cfg models.ThresholdConfig, est *pricing.Estimator) *Classifier {
	return NewAt(cfg, est, time.Now())
}

// NewAt returns a Classifier evaluating ages against a fixed timestamp.
func NewAt(cfg models.ThresholdConfig, est *pricing.Estimator, now time.Time) *Classifier {
	return &Classifier{cfg: cfg, est: est, now: now}
}

// Classify produces exactly one verdict for a record.
func (c *Classifier) Classify(rec models.ResourceRecord) models.Verdict {
	if ignoredStates[rec.State] {
		return models.Verdict{
			Disposition: models.DispositionIgnore,
			Reason:      fmt.Sprintf("resource is %s", rec.State),
		}
	}

	cost, _ := c.est.MonthlyCost(rec)

	var v models.Verdict
	switch rec.Kind {
	case models.KindInstance:
		v = c.classifyInstance(rec)
	case models.KindVolume:
		v = c.classifyVolume(rec)
	case models.KindSnapshot:
		v = c.classifySnapshot(rec)
	case models.KindFloatingIP:
		v = c.classifyFloatingIP(rec)
	case models.KindLoadBalancer:
		v = c.classifyLoadBalancer(rec)
	case models.KindManagedDB:
		v = c.classifyManagedDB(rec)
	case models.KindFunction:
		v = c.classifyFunction(rec)
	case models.KindNATGateway:
		v = c.classifyNATGateway(rec)
	case models.KindObjectBucket:
		v = c.classifyBucket(rec)
	default:
		v = models.Verdict{
			Disposition: models.DispositionKeep,
			Reason:      fmt.Sprintf("unrecognized kind %q", rec.Kind),
		}
	}

	v.EstimatedMonthlyCost = cost
	if cost != nil && v.Disposition != models.DispositionKeep {
		v.Reason = fmt.Sprintf("%s (est. $%.2f/mo)", v.Reason, *cost)
	}
	return v
}

func (c *Classifier) classifyInstance(rec models.ResourceRecord) models.Verdict {
	age := rec.AgeDays(c.now)

	if rec.State == "stopped" {
		if atLeastDays(age, c.cfg.StoppedInstanceMinDays) {
			return verdict(models.DispositionDelete,
				"stopped for %d days, past the %d day threshold", *age, c.cfg.StoppedInstanceMinDays)
		}
		if age == nil {
			return verdict(models.DispositionKeep, "stopped, but stop age unknown")
		}
		return verdict(models.DispositionKeep,
			"stopped for %d days, under the %d day threshold", *age, c.cfg.StoppedInstanceMinDays)
	}

	if rec.State == "running" && below(rec.Utilization, c.cfg.CPUIdlePercent) {
		return verdict(models.DispositionReview,
			"running with %.1f%% avg CPU, under the %.1f%% idle threshold over %dd",
			*rec.Utilization, c.cfg.CPUIdlePercent, c.cfg.WindowDays(rec.Kind))
	}

	return verdict(models.DispositionKeep, "in active use")
}

func (c *Classifier) classifyVolume(rec models.ResourceRecord) models.Verdict {
	if rec.State != "available" {
		return verdict(models.DispositionKeep, "attached or in use")
	}

	age := rec.AgeDays(c.now)
	if atLeastDays(age, c.cfg.UnattachedVolumeMinDays) {
		return verdict(models.DispositionDelete,
			"unattached for %d days, past the %d day threshold", *age, c.cfg.UnattachedVolumeMinDays)
	}
	if age == nil {
		return verdict(models.DispositionReview, "unattached, age unknown")
	}
	return verdict(models.DispositionReview,
		"unattached for %d days, under the %d day threshold", *age, c.cfg.UnattachedVolumeMinDays)
}

func (c *Classifier) classifySnapshot(rec models.ResourceRecord) models.Verdict {
	age := rec.AgeDays(c.now)
	if atLeastDays(age, c.cfg.SnapshotDeleteMinDays) {
		return verdict(models.DispositionDelete,
			"snapshot is %d days old, past the %d day delete threshold", *age, c.cfg.SnapshotDeleteMinDays)
	}
	if atLeastDays(age, c.cfg.SnapshotReviewMinDays) {
		return verdict(models.DispositionReview,
			"snapshot is %d days old, past the %d day review threshold", *age, c.cfg.SnapshotReviewMinDays)
	}
	if age == nil {
		return verdict(models.DispositionKeep, "snapshot age unknown")
	}
	return verdict(models.DispositionKeep, "snapshot is %d days old", *age)
}

func (c *Classifier) classifyFloatingIP(rec models.ResourceRecord) models.Verdict {
	if rec.AssociatedID == "" {
		return verdict(models.DispositionDelete, "unassociated address, not attached to any instance or network interface")
	}
	return verdict(models.DispositionKeep, "associated with %s", rec.AssociatedID)
}

func (c *Classifier) classifyLoadBalancer(rec models.ResourceRecord) models.Verdict {
	age := rec.AgeDays(c.now)
	if below(rec.Utilization, 1) && atLeastDays(age, c.cfg.IdleActivityMinDays) {
		return verdict(models.DispositionDelete,
			"no traffic (avg %.2f) over %dd window and older than %d days",
			*rec.Utilization, c.cfg.WindowDays(rec.Kind), c.cfg.IdleActivityMinDays)
	}
	return verdict(models.DispositionKeep, "serving traffic or too new to judge")
}

func (c *Classifier) classifyManagedDB(rec models.ResourceRecord) models.Verdict {
	if below(rec.Utilization, 1) {
		return verdict(models.DispositionDelete,
			"no connections (avg %.2f) over %dd window", *rec.Utilization, c.cfg.WindowDays(rec.Kind))
	}
	if rec.State == "stopped" {
		return verdict(models.DispositionReview, "database is stopped")
	}
	return verdict(models.DispositionKeep, "has active connections")
}

func (c *Classifier) classifyFunction(rec models.ResourceRecord) models.Verdict {
	age := rec.AgeDays(c.now)
	if below(rec.Utilization, 1) && atLeastDays(age, functionIdleMinDays) {
		return verdict(models.DispositionDelete,
			"no invocations (avg %.2f) over %dd window and older than %d days",
			*rec.Utilization, c.cfg.WindowDays(rec.Kind), functionIdleMinDays)
	}
	return verdict(models.DispositionKeep, "recently invoked or too new to judge")
}

func (c *Classifier) classifyNATGateway(rec models.ResourceRecord) models.Verdict {
	if below(rec.Utilization, natLowTrafficBytes) {
		return verdict(models.DispositionReview,
			"only %.0f bytes out over %dd window, NAT gateway accrues a fixed hourly charge",
			*rec.Utilization, c.cfg.WindowDays(rec.Kind))
	}
	return verdict(models.DispositionKeep, "routing traffic")
}

func (c *Classifier) classifyBucket(rec models.ResourceRecord) models.Verdict {
	age := rec.AgeDays(c.now)
	empty := rec.ObjectCount != nil && *rec.ObjectCount == 0

	if empty && atLeastDays(age, c.cfg.EmptyBucketMinDays) {
		return verdict(models.DispositionDelete,
			"empty bucket older than %d days", c.cfg.EmptyBucketMinDays)
	}
	if empty {
		return verdict(models.DispositionReview, "empty bucket, under the %d day threshold", c.cfg.EmptyBucketMinDays)
	}
	if rec.SizeUnits != nil && *rec.SizeUnits < smallBucketGB && atLeastDays(age, c.cfg.EmptyBucketMinDays) {
		return verdict(models.DispositionReview,
			"nearly empty bucket (%.3f GB) older than %d days", *rec.SizeUnits, c.cfg.EmptyBucketMinDays)
	}
	return verdict(models.DispositionKeep, "bucket in use")
}

// atLeastDays reports whether a known age meets a day threshold. Unknown
// ages never satisfy the condition.
func atLeastDays(age *int, minDays int) bool {
	return age != nil && *age >= minDays
}

// below reports whether a known utilization average is under a limit.
// Unavailable metrics never satisfy the condition.
func below(v *float64, limit float64) bool {
	return v != nil && *v < limit
}

func verdict(d models.Disposition, format string, args ...interface{}) models.Verdict {
	return models.Verdict{Disposition: d, Reason: fmt.Sprintf(format, args...)}
}
