package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MetricThreshold keeps only records whose metric Name is >= Min.
type MetricThreshold struct {
	Name string  `validate:"required"`
	Min  float64 `validate:"-"`
}

// CleanupPolicy is a conjunction of optional retention filters. A nil or zero
// filter is inactive.
type CleanupPolicy struct {
	KeepLastN *int             `validate:"omitempty,gte=0"`
	MaxAge    time.Duration    `validate:"gte=0s"`
	MinMetric *MetricThreshold `validate:"omitempty"`
}

var policyValidator = validator.New()

// KeepLast is a convenience for building a keep-last-N policy.
func KeepLast(n int) *int {
	return &n
}

// Validate reports ErrInvalidPolicy for negative counts or ages, or a
// threshold without a metric name.
func (p CleanupPolicy) Validate() error {
	if err := policyValidator.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// IsEmpty reports whether no filter is active.
func (p CleanupPolicy) IsEmpty() bool {
	return p.KeepLastN == nil && p.MaxAge == 0 && p.MinMetric == nil
}

func (p CleanupPolicy) String() string {
	var parts []string
	if p.KeepLastN != nil {
		parts = append(parts, fmt.Sprintf("keep_last_n=%d", *p.KeepLastN))
	}
	if p.MaxAge > 0 {
		parts = append(parts, fmt.Sprintf("max_age=%s", p.MaxAge))
	}
	if p.MinMetric != nil {
		parts = append(parts, fmt.Sprintf("min_metric=%s>=%g", p.MinMetric.Name, p.MinMetric.Min))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Plan splits versions into the records to retain and the records to delete.
// Age and metric filters are independent predicates over the full set;
// KeepLastN then narrows the survivors to the most recent N. The latest
// version is always retained. Both results are in ascending creation order.
func (p CleanupPolicy) Plan(versions []VersionRecord, latest string, now time.Time) (retained, deleted []VersionRecord) {
	ordered := make([]VersionRecord, len(versions))
	copy(ordered, versions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	survivors := make([]int, 0, len(ordered))
	for i, rec := range ordered {
		if p.satisfiesAge(rec, now) && p.satisfiesMetric(rec) {
			survivors = append(survivors, i)
		}
	}
	if p.KeepLastN != nil && len(survivors) > *p.KeepLastN {
		survivors = survivors[len(survivors)-*p.KeepLastN:]
	}

	keep := make(map[int]struct{}, len(survivors)+1)
	for _, i := range survivors {
		keep[i] = struct{}{}
	}

	retained = make([]VersionRecord, 0, len(survivors)+1)
	deleted = make([]VersionRecord, 0, len(ordered)-len(survivors))
	for i, rec := range ordered {
		_, ok := keep[i]
		if ok || rec.VersionID == latest {
			retained = append(retained, rec)
			continue
		}
		deleted = append(deleted, rec)
	}
	return retained, deleted
}

func (p CleanupPolicy) satisfiesAge(rec VersionRecord, now time.Time) bool {
	if p.MaxAge <= 0 {
		return true
	}
	return now.Sub(rec.CreatedAt) <= p.MaxAge
}

func (p CleanupPolicy) satisfiesMetric(rec VersionRecord) bool {
	if p.MinMetric == nil {
		return true
	}
	v, err := rec.Metrics.Get(p.MinMetric.Name)
	if err != nil {
		return false
	}
	return v >= p.MinMetric.Min
}
