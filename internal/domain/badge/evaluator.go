// Package badge evaluates reading counters against the criterion catalog and
// materializes earned badges.
package badge

import (
	"github.com/okian/shelf/internal/domain/catalog"
)

// Counters is a read-only view of a user's counters. ok is false when the
// metric has no counter, meaning criteria for it cannot be evaluated yet.
type Counters interface {
	Counter(metric catalog.MetricType) (value int64, ok bool)
}

// CounterMap adapts a plain map to Counters. Absent metrics are not evaluable.
type CounterMap map[catalog.MetricType]int64

func (m CounterMap) Counter(metric catalog.MetricType) (int64, bool) {
	v, ok := m[metric]
	return v, ok
}

// EarnedSet holds the keys a user has already been awarded.
type EarnedSet map[catalog.Key]struct{}

// NewEarnedSet builds a set from keys.
func NewEarnedSet(keys ...catalog.Key) EarnedSet {
	s := make(EarnedSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key was already earned. A nil set has nothing.
func (s EarnedSet) Has(key catalog.Key) bool {
	_, ok := s[key]
	return ok
}

// Add records key as earned.
func (s EarnedSet) Add(key catalog.Key) {
	s[key] = struct{}{}
}

// Evaluator finds newly satisfied criteria. It holds no mutable state and is
// safe for concurrent use.
type Evaluator struct {
	catalog *catalog.Catalog
}

// NewEvaluator returns an evaluator over cat.
func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{catalog: cat}
}

// Catalog returns the catalog the evaluator reads.
func (e *Evaluator) Catalog() *catalog.Catalog {
	return e.catalog
}

// Evaluate returns every criterion that counters satisfy and that is not in
// earned, in catalog order. Several tiers of one metric may be returned in a
// single call, lowest first.
func (e *Evaluator) Evaluate(counters Counters, earned EarnedSet) []catalog.Criterion {
	var met []catalog.Criterion
	for _, c := range e.catalog.All() {
		if earned.Has(c.Key()) {
			continue
		}
		value, ok := counters.Counter(c.Metric)
		if !ok {
			continue
		}
		// a non-positive requirement is met by any counter value
		if c.RequiredValue <= 0 || value >= c.RequiredValue {
			met = append(met, c)
		}
	}
	return met
}

// Progress is the fraction of required reached by value, clamped to [0, 1].
// A non-positive requirement is always complete.
func Progress(required, value int64) float64 {
	if required <= 0 {
		return 1
	}
	if value <= 0 {
		return 0
	}
	if value >= required {
		return 1
	}
	return float64(value) / float64(required)
}

// MetricProgress describes how far a user is toward the lowest unearned tier
// of one metric.
type MetricProgress struct {
	Metric catalog.MetricType `json:"metric"`
	Value  int64              `json:"value"`
	// Next is nil when every tier of the metric is earned.
	Next     *catalog.Criterion `json:"next,omitempty"`
	Progress float64            `json:"progress"`
	Earned   []catalog.Tier     `json:"earned"`
}

// Progress reports, per evaluable metric, the nearest unearned tier and the
// fraction reached. Metrics without a counter are omitted.
func (e *Evaluator) Progress(counters Counters, earned EarnedSet) []MetricProgress {
	var out []MetricProgress
	for _, metric := range catalog.Metrics {
		criteria := e.catalog.ForMetric(metric)
		if len(criteria) == 0 {
			continue
		}
		value, ok := counters.Counter(metric)
		if !ok {
			continue
		}
		mp := MetricProgress{Metric: metric, Value: value, Progress: 1, Earned: []catalog.Tier{}}
		for _, c := range criteria {
			if earned.Has(c.Key()) {
				mp.Earned = append(mp.Earned, c.Tier)
				continue
			}
			if mp.Next == nil {
				next := c
				mp.Next = &next
				mp.Progress = Progress(c.RequiredValue, value)
			}
		}
		out = append(out, mp)
	}
	return out
}
