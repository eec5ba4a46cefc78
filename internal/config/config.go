// Package config loads threshold overrides from an optional YAML file and
// CLOUDSWEEP_-prefixed environment variables. Missing settings fall back to
// the built-in defaults; invalid settings fail the run before any scan
// starts.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

const envPrefix = "CLOUDSWEEP"

// Load reads threshold configuration. path selects an explicit config file;
// when empty, $HOME/.cloudsweep.yaml is used if it exists.
func Load(path string) (models.ThresholdConfig, error) {
	v := viper.New()

	defaults := models.DefaultThresholds()
	v.SetDefault("stopped_instance_min_days", defaults.StoppedInstanceMinDays)
	v.SetDefault("unattached_volume_min_days", defaults.UnattachedVolumeMinDays)
	v.SetDefault("snapshot_review_min_days", defaults.SnapshotReviewMinDays)
	v.SetDefault("snapshot_delete_min_days", defaults.SnapshotDeleteMinDays)
	v.SetDefault("cpu_idle_percent", defaults.CPUIdlePercent)
	v.SetDefault("idle_activity_min_days", defaults.IdleActivityMinDays)
	v.SetDefault("empty_bucket_min_days", defaults.EmptyBucketMinDays)
	for kind, days := range defaults.MetricWindowDays {
		v.SetDefault("metric_window_days."+string(kind), days)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return models.ThresholdConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".cloudsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return models.ThresholdConfig{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg models.ThresholdConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return models.ThresholdConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return models.ThresholdConfig{}, err
	}
	return cfg, nil
}
