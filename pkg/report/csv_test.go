package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

func sampleRows() []models.Classified {
	created := time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)
	size := 120.0
	count := int64(0)
	util := 0.4
	cost := 9.60

	return []models.Classified{
		{
			Record: models.ResourceRecord{
				Kind:           models.KindVolume,
				Region:         "us-east-1",
				ID:             "vol-0abc",
				Name:           "data-volume",
				State:          "available",
				CreatedAt:      &created,
				SizeUnits:      &size,
				Tags:           map[string]string{"env": "dev", "team": "data"},
				TypeDescriptor: "gp3",
			},
			Verdict: models.Verdict{
				Disposition:          models.DispositionDelete,
				Reason:               "unattached for 90 days",
				EstimatedMonthlyCost: &cost,
			},
		},
		{
			Record: models.ResourceRecord{
				Kind:        models.KindObjectBucket,
				Region:      "eu-west-1",
				ID:          "stale-bucket",
				Name:        "stale-bucket",
				State:       "available",
				ObjectCount: &count,
				Utilization: &util,
				Tags:        map[string]string{},
			},
			Verdict: models.Verdict{
				Disposition: models.DispositionReview,
				Reason:      "empty bucket",
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sampleRows()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, now))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, rows[0].Record.Kind, got[0].Record.Kind)
	assert.Equal(t, rows[0].Record.ID, got[0].Record.ID)
	assert.Equal(t, rows[0].Record.Tags, got[0].Record.Tags)
	require.NotNil(t, got[0].Record.CreatedAt)
	assert.True(t, rows[0].Record.CreatedAt.Equal(*got[0].Record.CreatedAt))
	require.NotNil(t, got[0].Verdict.EstimatedMonthlyCost)
	assert.InDelta(t, 9.60, *got[0].Verdict.EstimatedMonthlyCost, 0.001)
	assert.Equal(t, models.DispositionDelete, got[0].Verdict.Disposition)
	assert.Equal(t, "unattached for 90 days", got[0].Verdict.Reason)

	assert.Nil(t, got[1].Record.CreatedAt)
	assert.Nil(t, got[1].Verdict.EstimatedMonthlyCost)
	require.NotNil(t, got[1].Record.ObjectCount)
	assert.Equal(t, int64(0), *got[1].Record.ObjectCount)
}

func TestReadResolvesColumnsByName(t *testing.T) {
	// Columns deliberately reordered relative to the writer.
	input := strings.Join([]string{
		"id,kind,state,region,created_at,tags,recommendation,est_monthly_cost",
		`eipalloc-1,eip,unassociated,us-east-1,,,DELETE: unassociated address,3.6`,
	}, "\n")

	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.KindFloatingIP, rows[0].Record.Kind)
	assert.Equal(t, "eipalloc-1", rows[0].Record.ID)
	assert.Equal(t, models.DispositionDelete, rows[0].Verdict.Disposition)
}

func TestReadRejectsMissingColumns(t *testing.T) {
	input := "kind,region,id\nebs,us-east-1,vol-1\n"
	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestReadRejectsUnknownKind(t *testing.T) {
	input := strings.Join([]string{
		"kind,region,id,state,created_at,tags,recommendation,est_monthly_cost",
		"floppy,us-east-1,f-1,available,,,DELETE: old,1.0",
	}, "\n")

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestReadRejectsUnknownRecommendation(t *testing.T) {
	input := strings.Join([]string{
		"kind,region,id,state,created_at,tags,recommendation,est_monthly_cost",
		"ebs,us-east-1,vol-1,available,,,NUKE: asap,1.0",
	}, "\n")

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized recommendation")
}

func TestTagsSortedAndStable(t *testing.T) {
	now := time.Now()
	rows := sampleRows()

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, rows, now))
	require.NoError(t, Write(&second, rows, now))
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), "env=dev;team=data")
}
