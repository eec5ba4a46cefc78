package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

func fp(v float64) *float64 { return &v }

func TestFloatingIPMonthlyCost(t *testing.T) {
	est := NewEstimator()

	cost, source := est.MonthlyCost(models.ResourceRecord{Kind: models.KindFloatingIP, Region: "us-east-1"})
	require.NotNil(t, cost)
	assert.InDelta(t, 3.60, *cost, 0.001)
	assert.Equal(t, SourceTable, source)
}

func TestVolumeMonthlyCost(t *testing.T) {
	est := NewEstimator()

	tests := []struct {
		name string
		rec  models.ResourceRecord
		want *float64
	}{
		{
			name: "gp3 in us-east-1",
			rec:  models.ResourceRecord{Kind: models.KindVolume, Region: "us-east-1", TypeDescriptor: "gp3", SizeUnits: fp(100)},
			want: fp(100 * 0.08),
		},
		{
			name: "unknown size yields no estimate",
			rec:  models.ResourceRecord{Kind: models.KindVolume, Region: "us-east-1", TypeDescriptor: "gp3"},
			want: nil,
		},
		{
			name: "unknown region falls back to us-east-1 prices",
			rec:  models.ResourceRecord{Kind: models.KindVolume, Region: "xx-fake-1", TypeDescriptor: "gp2", SizeUnits: fp(10)},
			want: fp(10 * 0.10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := est.MonthlyCost(tt.rec)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func TestInstanceMonthlyCostUsesFamilyTable(t *testing.T) {
	est := NewEstimator()

	known, source := est.MonthlyCost(models.ResourceRecord{
		Kind: models.KindInstance, Region: "us-east-1", TypeDescriptor: "t3.medium",
	})
	require.NotNil(t, known)
	assert.Equal(t, SourceTable, source)
	assert.Greater(t, *known, 0.0)

	unknown, _ := est.MonthlyCost(models.ResourceRecord{
		Kind: models.KindInstance, Region: "us-east-1", TypeDescriptor: "z99.mega",
	})
	require.NotNil(t, unknown)
	assert.InDelta(t, defaultInstanceHourly*MonthlyHours, *unknown, 0.001)
}

func TestFunctionMonthlyCostIsZero(t *testing.T) {
	est := NewEstimator()

	cost, _ := est.MonthlyCost(models.ResourceRecord{Kind: models.KindFunction, Region: "us-east-1"})
	require.NotNil(t, cost)
	assert.Zero(t, *cost)
}

func TestNATGatewayMonthlyCost(t *testing.T) {
	est := NewEstimator()

	cost, _ := est.MonthlyCost(models.ResourceRecord{Kind: models.KindNATGateway, Region: "us-east-1"})
	require.NotNil(t, cost)
	assert.InDelta(t, natGatewayHourly*MonthlyHours, *cost, 0.001)
}

func TestInstanceFamilyParsing(t *testing.T) {
	assert.Equal(t, "t3", instanceFamily("t3.medium"))
	assert.Equal(t, "r6i", instanceFamily("r6i.4xlarge"))
	assert.Equal(t, "weird", instanceFamily("weird"))
}

func TestDBClassFamilyParsing(t *testing.T) {
	assert.Equal(t, "db.t3", dbClassFamily("db.t3.medium"))
	assert.Equal(t, "db.r5", dbClassFamily("db.r5.large"))
	assert.Equal(t, "bare", dbClassFamily("bare"))
}

func TestExtractOnDemandPrice(t *testing.T) {
	priceJSON := `{
		"terms": {
			"OnDemand": {
				"SKU1.HOURS": {
					"priceDimensions": {
						"SKU1.HOURS.RATE": {
							"pricePerUnit": {"USD": "0.0416"}
						}
					}
				}
			}
		}
	}`

	price, err := ExtractOnDemandPrice(priceJSON)
	require.NoError(t, err)
	assert.InDelta(t, 0.0416, price, 0.00001)
}

func TestExtractOnDemandPriceErrors(t *testing.T) {
	_, err := ExtractOnDemandPrice("not json")
	assert.Error(t, err)

	_, err = ExtractOnDemandPrice(`{"terms": {}}`)
	assert.Error(t, err)
}
