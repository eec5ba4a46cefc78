package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/pricing"
)

var scanTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return NewAt(models.DefaultThresholds(), pricing.NewEstimator(), scanTime)
}

func daysAgo(days int) *time.Time {
	t := scanTime.AddDate(0, 0, -days)
	return &t
}

func f(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func TestClassifyInstance(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		rec  models.ResourceRecord
		want models.Disposition
	}{
		{
			name: "stopped past threshold",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(45)},
			want: models.DispositionDelete,
		},
		{
			name: "stopped under threshold",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(10)},
			want: models.DispositionKeep,
		},
		{
			name: "stopped with unknown age never deletes",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "stopped"},
			want: models.DispositionKeep,
		},
		{
			name: "running with idle CPU",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "running", CreatedAt: daysAgo(100), Utilization: f(2.0)},
			want: models.DispositionReview,
		},
		{
			name: "running with busy CPU",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "running", CreatedAt: daysAgo(100), Utilization: f(60.0)},
			want: models.DispositionKeep,
		},
		{
			name: "running with no CPU data never reviews",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "running", CreatedAt: daysAgo(100)},
			want: models.DispositionKeep,
		},
		{
			name: "terminated is ignored",
			rec:  models.ResourceRecord{Kind: models.KindInstance, State: "terminated"},
			want: models.DispositionIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.rec)
			assert.Equal(t, tt.want, got.Disposition)
		})
	}
}

func TestClassifyInstanceCustomThreshold(t *testing.T) {
	cfg := models.DefaultThresholds()
	cfg.StoppedInstanceMinDays = 90
	c := NewAt(cfg, pricing.NewEstimator(), scanTime)

	under := c.Classify(models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(45)})
	assert.Equal(t, models.DispositionKeep, under.Disposition)

	over := c.Classify(models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(120)})
	assert.Equal(t, models.DispositionDelete, over.Disposition)
}

func TestClassifyVolume(t *testing.T) {
	c := newTestClassifier()

	aged := c.Classify(models.ResourceRecord{Kind: models.KindVolume, State: "available", CreatedAt: daysAgo(40), SizeUnits: f(100)})
	assert.Equal(t, models.DispositionDelete, aged.Disposition)

	young := c.Classify(models.ResourceRecord{Kind: models.KindVolume, State: "available", CreatedAt: daysAgo(5), SizeUnits: f(100)})
	assert.Equal(t, models.DispositionReview, young.Disposition)

	unknown := c.Classify(models.ResourceRecord{Kind: models.KindVolume, State: "available"})
	assert.Equal(t, models.DispositionReview, unknown.Disposition)
	assert.Contains(t, unknown.Reason, "age unknown")

	attached := c.Classify(models.ResourceRecord{Kind: models.KindVolume, State: "in-use", CreatedAt: daysAgo(400)})
	assert.Equal(t, models.DispositionKeep, attached.Disposition)
}

func TestClassifySnapshot(t *testing.T) {
	c := newTestClassifier()

	old := c.Classify(models.ResourceRecord{Kind: models.KindSnapshot, State: "completed", CreatedAt: daysAgo(400)})
	assert.Equal(t, models.DispositionDelete, old.Disposition)

	middle := c.Classify(models.ResourceRecord{Kind: models.KindSnapshot, State: "completed", CreatedAt: daysAgo(100)})
	assert.Equal(t, models.DispositionReview, middle.Disposition)

	recent := c.Classify(models.ResourceRecord{Kind: models.KindSnapshot, State: "completed", CreatedAt: daysAgo(30)})
	assert.Equal(t, models.DispositionKeep, recent.Disposition)

	unknown := c.Classify(models.ResourceRecord{Kind: models.KindSnapshot, State: "completed"})
	assert.Equal(t, models.DispositionKeep, unknown.Disposition)
}

func TestClassifyFloatingIP(t *testing.T) {
	c := newTestClassifier()

	unattached := c.Classify(models.ResourceRecord{Kind: models.KindFloatingIP, State: "unassociated"})
	assert.Equal(t, models.DispositionDelete, unattached.Disposition)
	assert.Contains(t, unattached.Reason, "unassociated")
	require.NotNil(t, unattached.EstimatedMonthlyCost)
	assert.InDelta(t, 3.60, *unattached.EstimatedMonthlyCost, 0.001)
	assert.Contains(t, unattached.Reason, "$3.60/mo")

	attached := c.Classify(models.ResourceRecord{Kind: models.KindFloatingIP, State: "associated", AssociatedID: "i-0abc"})
	assert.Equal(t, models.DispositionKeep, attached.Disposition)
}

func TestClassifyLoadBalancer(t *testing.T) {
	c := newTestClassifier()

	idle := c.Classify(models.ResourceRecord{Kind: models.KindLoadBalancer, State: "active", CreatedAt: daysAgo(30), Utilization: f(0)})
	assert.Equal(t, models.DispositionDelete, idle.Disposition)

	tooNew := c.Classify(models.ResourceRecord{Kind: models.KindLoadBalancer, State: "active", CreatedAt: daysAgo(3), Utilization: f(0)})
	assert.Equal(t, models.DispositionKeep, tooNew.Disposition)

	noMetric := c.Classify(models.ResourceRecord{Kind: models.KindLoadBalancer, State: "active", CreatedAt: daysAgo(30)})
	assert.Equal(t, models.DispositionKeep, noMetric.Disposition)

	busy := c.Classify(models.ResourceRecord{Kind: models.KindLoadBalancer, State: "active", CreatedAt: daysAgo(30), Utilization: f(5000)})
	assert.Equal(t, models.DispositionKeep, busy.Disposition)
}

func TestClassifyManagedDB(t *testing.T) {
	c := newTestClassifier()

	idle := c.Classify(models.ResourceRecord{Kind: models.KindManagedDB, State: "available", Utilization: f(0)})
	assert.Equal(t, models.DispositionDelete, idle.Disposition)

	stopped := c.Classify(models.ResourceRecord{Kind: models.KindManagedDB, State: "stopped", Utilization: f(3)})
	assert.Equal(t, models.DispositionReview, stopped.Disposition)

	active := c.Classify(models.ResourceRecord{Kind: models.KindManagedDB, State: "available", Utilization: f(12)})
	assert.Equal(t, models.DispositionKeep, active.Disposition)

	noMetric := c.Classify(models.ResourceRecord{Kind: models.KindManagedDB, State: "available"})
	assert.Equal(t, models.DispositionKeep, noMetric.Disposition)
}

func TestClassifyFunction(t *testing.T) {
	c := newTestClassifier()

	idle := c.Classify(models.ResourceRecord{Kind: models.KindFunction, State: "Active", CreatedAt: daysAgo(100), Utilization: f(0)})
	assert.Equal(t, models.DispositionDelete, idle.Disposition)

	young := c.Classify(models.ResourceRecord{Kind: models.KindFunction, State: "Active", CreatedAt: daysAgo(30), Utilization: f(0)})
	assert.Equal(t, models.DispositionKeep, young.Disposition)

	invoked := c.Classify(models.ResourceRecord{Kind: models.KindFunction, State: "Active", CreatedAt: daysAgo(100), Utilization: f(250)})
	assert.Equal(t, models.DispositionKeep, invoked.Disposition)
}

func TestClassifyNATGateway(t *testing.T) {
	c := newTestClassifier()

	quiet := c.Classify(models.ResourceRecord{Kind: models.KindNATGateway, State: "available", Utilization: f(1024)})
	assert.Equal(t, models.DispositionReview, quiet.Disposition)

	busy := c.Classify(models.ResourceRecord{Kind: models.KindNATGateway, State: "available", Utilization: f(5_000_000)})
	assert.Equal(t, models.DispositionKeep, busy.Disposition)

	noMetric := c.Classify(models.ResourceRecord{Kind: models.KindNATGateway, State: "available"})
	assert.Equal(t, models.DispositionKeep, noMetric.Disposition)
}

func TestClassifyBucket(t *testing.T) {
	c := newTestClassifier()

	emptyAged := c.Classify(models.ResourceRecord{Kind: models.KindObjectBucket, State: "available", CreatedAt: daysAgo(60), ObjectCount: i64(0)})
	assert.Equal(t, models.DispositionDelete, emptyAged.Disposition)

	emptyNew := c.Classify(models.ResourceRecord{Kind: models.KindObjectBucket, State: "available", CreatedAt: daysAgo(5), ObjectCount: i64(0)})
	assert.Equal(t, models.DispositionReview, emptyNew.Disposition)

	tiny := c.Classify(models.ResourceRecord{Kind: models.KindObjectBucket, State: "available", CreatedAt: daysAgo(60), ObjectCount: i64(3), SizeUnits: f(0.05)})
	assert.Equal(t, models.DispositionReview, tiny.Disposition)

	inUse := c.Classify(models.ResourceRecord{Kind: models.KindObjectBucket, State: "available", CreatedAt: daysAgo(60), ObjectCount: i64(100000), SizeUnits: f(250)})
	assert.Equal(t, models.DispositionKeep, inUse.Disposition)

	unknownCount := c.Classify(models.ResourceRecord{Kind: models.KindObjectBucket, State: "available", CreatedAt: daysAgo(60)})
	assert.Equal(t, models.DispositionKeep, unknownCount.Disposition)
}

func TestClassifyIsPure(t *testing.T) {
	c := newTestClassifier()
	rec := models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(45), Region: "us-east-1", TypeDescriptor: "t3.medium"}

	first := c.Classify(rec)
	second := c.Classify(rec)
	assert.Equal(t, first, second)
}

func TestClassifyIgnoresTags(t *testing.T) {
	c := newTestClassifier()

	plain := models.ResourceRecord{Kind: models.KindInstance, State: "stopped", CreatedAt: daysAgo(45)}
	tagged := plain
	tagged.Tags = map[string]string{"do-not-delete": "true", "env": "prod"}

	assert.Equal(t, c.Classify(plain).Disposition, c.Classify(tagged).Disposition)
}

func TestClassifySeverityMonotonicWithAge(t *testing.T) {
	c := newTestClassifier()

	severity := map[models.Disposition]int{
		models.DispositionKeep:   0,
		models.DispositionReview: 1,
		models.DispositionDelete: 2,
	}

	prev := -1
	for _, days := range []int{1, 10, 29, 30, 31, 100, 400} {
		v := c.Classify(models.ResourceRecord{Kind: models.KindSnapshot, State: "completed", CreatedAt: daysAgo(days)})
		cur := severity[v.Disposition]
		assert.GreaterOrEqual(t, cur, prev, "severity regressed at age %d", days)
		prev = cur
	}
}

func TestClassifyAppendsCostToActionableReasons(t *testing.T) {
	c := newTestClassifier()

	v := c.Classify(models.ResourceRecord{Kind: models.KindVolume, State: "available", CreatedAt: daysAgo(40), SizeUnits: f(100), Region: "us-east-1", TypeDescriptor: "gp3"})
	require.NotNil(t, v.EstimatedMonthlyCost)
	assert.Contains(t, v.Reason, "est. $")
}
