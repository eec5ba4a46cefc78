package pricing

import (
	"sync"
)

// Source represents the origin of a cost figure.
type Source string

const (
	// SourceAPI indicates the figure came from the AWS Pricing API
	SourceAPI Source = "API"

	// SourceCache indicates the figure came from the in-memory cache
	SourceCache Source = "Cache"

	// SourceTable indicates the figure came from the static estimate tables
	SourceTable Source = "Table"

	// SourceNA indicates no estimate could be produced
	SourceNA Source = "N/A"
)

// Stats tracking for pricing API calls
var (
	// apiStats tracks API call statistics by service and region
	apiStats = make(map[string]map[string]map[string]int) // service -> region -> {success, failure, cache}

	// apiStatsLock protects the stats map from concurrent access
	apiStatsLock sync.RWMutex
)

// EC2 live price cache
var (
	ec2PriceCache     = make(map[string]float64)
	ec2PriceCacheLock sync.RWMutex
)

// FloatingIPMonthly is the fixed monthly rate AWS charges for an
// unassociated Elastic IP address (about $0.005 per hour).
const FloatingIPMonthly = 3.60

// MonthlyHours approximates the hours in one month (365 days / 12 * 24).
const MonthlyHours = 730.0

// Static per-GB-month volume prices by region and volume type. Fallback when
// no region or type entry exists is us-east-1 gp2.
var volumeGBMonth = map[string]map[string]float64{
	"us-east-1": {
		"gp2":      0.10,
		"gp3":      0.08,
		"io1":      0.125,
		"io2":      0.125,
		"st1":      0.045,
		"sc1":      0.025,
		"standard": 0.05,
	},
	"ap-northeast-2": {
		"gp2":      0.114,
		"gp3":      0.092,
		"io1":      0.142,
		"io2":      0.142,
		"st1":      0.051,
		"sc1":      0.029,
		"standard": 0.057,
	},
}

const defaultVolumeGBMonth = 0.10

// Snapshot storage per GB-month.
const snapshotGBMonth = 0.05

// Standard object storage per GB-month.
const bucketGBMonth = 0.023

// On-demand Linux pricing by instance family, USD per hour. Coarse
// us-east-1 figures used when the Pricing API is disabled or unavailable.
var instanceFamilyHourly = map[string]float64{
	"t2":  0.0464, // t2.medium
	"t3":  0.0416, // t3.medium
	"t3a": 0.0376,
	"t4g": 0.0336,
	"m5":  0.096, // m5.large
	"m6i": 0.096,
	"m7i": 0.1008,
	"c5":  0.085,
	"c6i": 0.085,
	"r5":  0.126,
	"r6i": 0.126,
}

const defaultInstanceHourly = 0.10

// On-demand pricing by DB instance class family, USD per hour (single-AZ).
var dbClassFamilyHourly = map[string]float64{
	"db.t3":  0.068, // db.t3.medium
	"db.t4g": 0.065,
	"db.m5":  0.171, // db.m5.large
	"db.m6g": 0.152,
	"db.r5":  0.24,
	"db.r6g": 0.215,
}

const defaultDBHourly = 0.10

// Hourly base rates for load balancers, excluding LCU charges.
var lbTypeHourly = map[string]float64{
	"application": 0.0225,
	"network":     0.0225,
	"gateway":     0.0125,
}

const defaultLBHourly = 0.0225

// NAT gateway hourly base rate, excluding data processing.
const natGatewayHourly = 0.045
