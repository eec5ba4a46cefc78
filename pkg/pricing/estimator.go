package pricing

import (
	"strings"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// Estimator produces coarse monthly cost estimates for resource records.
// Estimates come from static tables keyed by a type descriptor; for EC2
// instances a live Pricing API lookup can be enabled, with results cached so
// repeated lookups within one run stay deterministic. These figures are
// estimates, not billing data.
type Estimator struct {
	liveLookup bool
}

// NewEstimator returns an Estimator using only the static tables.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// NewLiveEstimator returns an Estimator that consults the AWS Pricing API
// for EC2 instance prices before falling back to the static tables.
func NewLiveEstimator() *Estimator {
	return &Estimator{liveLookup: true}
}

// MonthlyCost returns the estimated monthly cost in USD for a record, and
// the source of the figure. A nil cost means no estimate is available.
func (e *Estimator) MonthlyCost(rec models.ResourceRecord) (*float64, Source) {
	switch rec.Kind {
	case models.KindInstance:
		return e.instanceMonthly(rec)
	case models.KindVolume:
		return volumeMonthly(rec), SourceTable
	case models.KindSnapshot:
		return storageMonthly(rec.SizeUnits, snapshotGBMonth), SourceTable
	case models.KindFloatingIP:
		return ptr(FloatingIPMonthly), SourceTable
	case models.KindLoadBalancer:
		return ptr(hourlyOrDefault(lbTypeHourly, rec.TypeDescriptor, defaultLBHourly) * MonthlyHours), SourceTable
	case models.KindManagedDB:
		return ptr(hourlyOrDefault(dbClassFamilyHourly, dbClassFamily(rec.TypeDescriptor), defaultDBHourly) * MonthlyHours), SourceTable
	case models.KindFunction:
		// An idle function accrues no invocation charges; deleting it
		// recovers nothing measurable.
		return ptr(0), SourceTable
	case models.KindNATGateway:
		return ptr(natGatewayHourly * MonthlyHours), SourceTable
	case models.KindObjectBucket:
		return storageMonthly(rec.SizeUnits, bucketGBMonth), SourceTable
	default:
		return nil, SourceNA
	}
}

func (e *Estimator) instanceMonthly(rec models.ResourceRecord) (*float64, Source) {
	if e.liveLookup {
		if hourly, src, ok := instanceHourlyFromAPI(rec.TypeDescriptor, rec.Region); ok {
			return ptr(hourly * MonthlyHours), src
		}
	}
	hourly := hourlyOrDefault(instanceFamilyHourly, instanceFamily(rec.TypeDescriptor), defaultInstanceHourly)
	return ptr(hourly * MonthlyHours), SourceTable
}

func volumeMonthly(rec models.ResourceRecord) *float64 {
	if rec.SizeUnits == nil {
		return nil
	}
	perGB := defaultVolumeGBMonth
	prices, ok := volumeGBMonth[rec.Region]
	if !ok {
		prices = volumeGBMonth["us-east-1"]
	}
	if p, ok := prices[rec.TypeDescriptor]; ok {
		perGB = p
	} else if p, ok := prices["gp2"]; ok {
		perGB = p
	}
	return ptr(*rec.SizeUnits * perGB)
}

func storageMonthly(sizeGB *float64, perGBMonth float64) *float64 {
	if sizeGB == nil {
		return nil
	}
	return ptr(*sizeGB * perGBMonth)
}

// instanceFamily extracts the family from an instance type, e.g. "t3" from
// "t3.medium".
func instanceFamily(instanceType string) string {
	if i := strings.IndexByte(instanceType, '.'); i > 0 {
		return instanceType[:i]
	}
	return instanceType
}

// dbClassFamily extracts the class family from a DB instance class, e.g.
// "db.t3" from "db.t3.medium".
func dbClassFamily(class string) string {
	parts := strings.SplitN(class, ".", 3)
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return class
}

func hourlyOrDefault(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

func ptr(v float64) *float64 { return &v }
