package badge

import "time"

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithClock sets the time source used for DateEarned.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithIDGenerator sets the badge id generator.
func WithIDGenerator(gen func() string) FactoryOption {
	return func(f *Factory) {
		if gen != nil {
			f.newID = gen
		}
	}
}
