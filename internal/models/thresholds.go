package models

import "fmt"

// Metric window defaults, in days, per kind. The trailing window over which
// utilization averages are computed is an explicit per-kind setting rather
// than a constant buried in the scanners.
const (
	DefaultInstanceMetricWindowDays = 14
	DefaultLBMetricWindowDays       = 14
	DefaultDBMetricWindowDays       = 14
	DefaultFunctionMetricWindowDays = 30
	DefaultNATMetricWindowDays      = 14
	DefaultBucketMetricWindowDays   = 30
)

// ThresholdConfig holds the classification thresholds for one run.
// It is immutable once a scan begins.
type ThresholdConfig struct {
	StoppedInstanceMinDays  int     `mapstructure:"stopped_instance_min_days"`
	UnattachedVolumeMinDays int     `mapstructure:"unattached_volume_min_days"`
	SnapshotReviewMinDays   int     `mapstructure:"snapshot_review_min_days"`
	SnapshotDeleteMinDays   int     `mapstructure:"snapshot_delete_min_days"`
	CPUIdlePercent          float64 `mapstructure:"cpu_idle_percent"`
	IdleActivityMinDays     int     `mapstructure:"idle_activity_min_days"`
	EmptyBucketMinDays      int     `mapstructure:"empty_bucket_min_days"`

	// MetricWindowDays maps each kind to the trailing window, in days, its
	// utilization average is computed over.
	MetricWindowDays map[ResourceKind]int `mapstructure:"metric_window_days"`
}

// DefaultThresholds returns the threshold set used when no config overrides
// are present.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		StoppedInstanceMinDays:  30,
		UnattachedVolumeMinDays: 30,
		SnapshotReviewMinDays:   90,
		SnapshotDeleteMinDays:   365,
		CPUIdlePercent:          5.0,
		IdleActivityMinDays:     7,
		EmptyBucketMinDays:      30,
		MetricWindowDays: map[ResourceKind]int{
			KindInstance:     DefaultInstanceMetricWindowDays,
			KindLoadBalancer: DefaultLBMetricWindowDays,
			KindManagedDB:    DefaultDBMetricWindowDays,
			KindFunction:     DefaultFunctionMetricWindowDays,
			KindNATGateway:   DefaultNATMetricWindowDays,
			KindObjectBucket: DefaultBucketMetricWindowDays,
		},
	}
}

// WindowDays returns the metric window for a kind, falling back to 14 days
// when the kind has no explicit entry.
func (c ThresholdConfig) WindowDays(kind ResourceKind) int {
	if d, ok := c.MetricWindowDays[kind]; ok && d > 0 {
		return d
	}
	return 14
}

// Validate checks threshold ranges before a run starts.
func (c ThresholdConfig) Validate() error {
	days := map[string]int{
		"stopped_instance_min_days":  c.StoppedInstanceMinDays,
		"unattached_volume_min_days": c.UnattachedVolumeMinDays,
		"snapshot_review_min_days":   c.SnapshotReviewMinDays,
		"snapshot_delete_min_days":   c.SnapshotDeleteMinDays,
		"idle_activity_min_days":     c.IdleActivityMinDays,
		"empty_bucket_min_days":      c.EmptyBucketMinDays,
	}
	for name, v := range days {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if c.CPUIdlePercent <= 0 || c.CPUIdlePercent > 100 {
		return fmt.Errorf("cpu_idle_percent must be in (0, 100], got %.2f", c.CPUIdlePercent)
	}
	if c.SnapshotDeleteMinDays < c.SnapshotReviewMinDays {
		return fmt.Errorf("snapshot_delete_min_days (%d) must be >= snapshot_review_min_days (%d)",
			c.SnapshotDeleteMinDays, c.SnapshotReviewMinDays)
	}
	return nil
}
