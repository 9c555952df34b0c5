package badge

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/shelf/internal/domain/catalog"
)

// Badge is an awarded criterion for one user.
type Badge struct {
	ID                 string             `json:"id"`
	Metric             catalog.MetricType `json:"metric"`
	Tier               catalog.Tier       `json:"tier"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Icon               string             `json:"icon"`
	TierColor          string             `json:"tierColor"`
	DateEarned         time.Time          `json:"dateEarned"`
	TriggerValue       int64              `json:"triggerValue"`
	ProgressToNextTier float64            `json:"progressToNextTier"`
}

// Key returns the badge's criterion key.
func (b Badge) Key() catalog.Key {
	return catalog.Key{Metric: b.Metric, Tier: b.Tier}
}

// Factory turns qualifying criteria into badges.
type Factory struct {
	catalog *catalog.Catalog
	now     func() time.Time
	newID   func() string
}

// NewFactory returns a factory that looks up next tiers in cat.
func NewFactory(cat *catalog.Catalog, opts ...FactoryOption) *Factory {
	f := &Factory{
		catalog: cat,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds a badge for c awarded at triggerValue.
func (f *Factory) Create(c catalog.Criterion, triggerValue int64) Badge {
	b := Badge{
		ID:           f.newID(),
		Metric:       c.Metric,
		Tier:         c.Tier,
		Title:        c.Title,
		Description:  c.Description,
		Icon:         c.Icon,
		TierColor:    c.Tier.Color(),
		DateEarned:   f.now().UTC(),
		TriggerValue: triggerValue,
	}
	if next, ok := f.catalog.Next(c); ok {
		b.ProgressToNextTier = Progress(next.RequiredValue, triggerValue)
	}
	return b
}

// Award evaluates counters and creates a badge for every newly met criterion,
// adding each key to earned. The trigger value is the counter read for the
// criterion's metric.
func (f *Factory) Award(e *Evaluator, counters Counters, earned EarnedSet) []Badge {
	met := e.Evaluate(counters, earned)
	if len(met) == 0 {
		return nil
	}
	out := make([]Badge, 0, len(met))
	for _, c := range met {
		value, _ := counters.Counter(c.Metric)
		out = append(out, f.Create(c, value))
		if earned != nil {
			earned.Add(c.Key())
		}
	}
	return out
}
