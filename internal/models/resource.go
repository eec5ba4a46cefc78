package models

import (
	"time"
)

// ResourceKind identifies one of the supported resource categories.
// The string values double as the service names accepted by the CLI.
type ResourceKind string

const (
	KindInstance       ResourceKind = "ec2"
	KindVolume         ResourceKind = "ebs"
	KindSnapshot       ResourceKind = "snapshot"
	KindFloatingIP     ResourceKind = "eip"
	KindLoadBalancer   ResourceKind = "elb"
	KindManagedDB      ResourceKind = "rds"
	KindFunction       ResourceKind = "lambda"
	KindNATGateway     ResourceKind = "nat"
	KindObjectBucket   ResourceKind = "s3"
)

// AllKinds lists every supported kind in scan order.
var AllKinds = []ResourceKind{
	KindInstance, KindVolume, KindSnapshot, KindFloatingIP, KindLoadBalancer,
	KindManagedDB, KindFunction, KindNATGateway, KindObjectBucket,
}

// IsValidKind reports whether s names a supported resource kind.
func IsValidKind(s string) bool {
	for _, k := range AllKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// ResourceRecord is a read-only snapshot of one cloud resource at scan time.
// Kind+Region+ID uniquely identifies a record within one scan. Optional
// numeric fields are pointers; nil means the provider could not supply the
// value, and all downstream comparisons fail closed on nil.
type ResourceRecord struct {
	Kind           ResourceKind
	Region         string
	ID             string
	Name           string
	State          string
	CreatedAt      *time.Time
	SizeUnits      *float64 // GB for volumes/snapshots/buckets, memory MB for functions
	ObjectCount    *int64   // buckets only
	Utilization    *float64 // trailing-window average, metric depends on kind
	Tags           map[string]string
	AssociatedID   string // attached instance, network interface, source volume, ...
	TypeDescriptor string // coarse pricing descriptor: instance type, volume type, DB class, ...
}

// AgeDays returns the whole days elapsed between CreatedAt and now,
// or nil when the creation time is unknown.
func (r ResourceRecord) AgeDays(now time.Time) *int {
	if r.CreatedAt == nil || r.CreatedAt.After(now) {
		return nil
	}
	days := int(now.Sub(*r.CreatedAt).Hours() / 24)
	return &days
}

// Disposition is the classification verdict for a resource.
type Disposition string

const (
	DispositionDelete Disposition = "DELETE"
	DispositionReview Disposition = "REVIEW"
	DispositionKeep   Disposition = "KEEP"
	DispositionIgnore Disposition = "IGNORE"
)

// Verdict is the classifier output for one resource. Disposition is a pure
// function of the record and the active thresholds. EstimatedMonthlyCost is
// nil when no estimate could be produced.
type Verdict struct {
	Disposition          Disposition
	Reason               string
	EstimatedMonthlyCost *float64
}

// Classified pairs a record with its verdict. A slice of these, in scan
// order, is the contract between the scan and delete stages.
type Classified struct {
	Record  ResourceRecord
	Verdict Verdict
}
