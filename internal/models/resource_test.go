package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeDays(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	created := now.AddDate(0, 0, -45)
	rec := ResourceRecord{CreatedAt: &created}
	age := rec.AgeDays(now)
	require.NotNil(t, age)
	assert.Equal(t, 45, *age)

	assert.Nil(t, ResourceRecord{}.AgeDays(now), "unknown creation time has no age")

	future := now.Add(time.Hour)
	assert.Nil(t, ResourceRecord{CreatedAt: &future}.AgeDays(now), "clock skew does not produce a negative age")
}

func TestIsValidKind(t *testing.T) {
	for _, k := range AllKinds {
		assert.True(t, IsValidKind(string(k)))
	}
	assert.False(t, IsValidKind("floppy"))
	assert.False(t, IsValidKind(""))
}
