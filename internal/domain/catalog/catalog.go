// Package catalog holds the immutable table of achievement criteria.
package catalog

// Criterion is a single achievement definition: reaching RequiredValue on
// Metric earns Tier.
type Criterion struct {
	Metric        MetricType `json:"metric"`
	Tier          Tier       `json:"tier"`
	RequiredValue int64      `json:"requiredValue"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
}

// Key returns the criterion's identity.
func (c Criterion) Key() Key {
	return Key{Metric: c.Metric, Tier: c.Tier}
}

// Catalog is an ordered, read-only set of criteria. Construct it once and pass
// it to whatever evaluates against it.
type Catalog struct {
	entries  []Criterion
	byMetric map[MetricType][]int
}

// New builds a catalog from criteria in declaration order. Order is preserved
// exactly; callers are expected to group by metric with ascending tiers.
func New(criteria ...Criterion) *Catalog {
	c := &Catalog{
		entries:  make([]Criterion, len(criteria)),
		byMetric: make(map[MetricType][]int),
	}
	copy(c.entries, criteria)
	for i, cr := range c.entries {
		c.byMetric[cr.Metric] = append(c.byMetric[cr.Metric], i)
	}
	return c
}

// All returns every criterion in declaration order. The slice is a copy.
func (c *Catalog) All() []Criterion {
	out := make([]Criterion, len(c.entries))
	copy(out, c.entries)
	return out
}

// ForMetric returns the criteria for one metric in declaration order.
func (c *Catalog) ForMetric(metric MetricType) []Criterion {
	idx := c.byMetric[metric]
	out := make([]Criterion, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.entries[i])
	}
	return out
}

// Lookup returns the criterion for key.
func (c *Catalog) Lookup(key Key) (Criterion, bool) {
	for _, i := range c.byMetric[key.Metric] {
		if c.entries[i].Tier == key.Tier {
			return c.entries[i], true
		}
	}
	return Criterion{}, false
}

// Next returns the lowest criterion of the same metric ranked above cr, if any.
func (c *Catalog) Next(cr Criterion) (Criterion, bool) {
	var (
		next  Criterion
		found bool
	)
	for _, i := range c.byMetric[cr.Metric] {
		e := c.entries[i]
		if e.Tier > cr.Tier && (!found || e.Tier < next.Tier) {
			next, found = e, true
		}
	}
	return next, found
}

// Len returns the number of criteria.
func (c *Catalog) Len() int {
	return len(c.entries)
}
