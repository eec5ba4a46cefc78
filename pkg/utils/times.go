package utils

import (
	"strings"
	"time"
)

// ParseStateTransitionTime extracts the stop time from an EC2 state
// transition reason such as "User initiated (2023-04-01 12:34:56 GMT)".
// Returns nil when the reason carries no parseable timestamp, so callers
// treat the age as unknown rather than zero.
func ParseStateTransitionTime(reason string) *time.Time {
	if len(reason) == 0 {
		return nil
	}

	parts := strings.Split(reason, "(")
	if len(parts) < 2 {
		return nil
	}

	dateStr := strings.TrimSuffix(parts[1], ")")
	dateStr = strings.TrimSpace(dateStr)

	t, err := time.Parse("2006-01-02 15:04:05 MST", dateStr)
	if err != nil {
		return nil
	}

	return &t
}
