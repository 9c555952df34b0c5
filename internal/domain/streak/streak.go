// Package streak tracks consecutive reading days at calendar-day granularity.
package streak

// Transition names the rule applied by Apply.
type Transition string

const (
	Initial             Transition = "initial"
	AlreadyUpdatedToday Transition = "already_updated_today"
	Continued           Transition = "continued"
	Gap                 Transition = "gap"
	// Backdated means today precedes the last update day, for example after
	// a clock change. The state is left untouched.
	Backdated Transition = "backdated"
)

// State is the persisted streak for one user.
type State struct {
	CurrentStreak int  `json:"currentStreak"`
	LongestStreak int  `json:"longestStreak"`
	LastUpdateDay *Day `json:"lastUpdateDay,omitempty"`
}

// Changed reports whether the transition modified the state.
func (t Transition) Changed() bool {
	return t == Initial || t == Continued || t == Gap
}

// Apply records a qualifying activity on today and returns the new state.
// The input is not modified.
func Apply(s State, today Day) (State, Transition) {
	out := s
	if s.LastUpdateDay == nil {
		out.CurrentStreak = 1
		out.LongestStreak = max(s.LongestStreak, 1)
		out.LastUpdateDay = &today
		return out, Initial
	}

	last := *s.LastUpdateDay
	switch {
	case today == last:
		return s, AlreadyUpdatedToday
	case today < last:
		return s, Backdated
	case today == last+1:
		out.CurrentStreak = s.CurrentStreak + 1
		out.LongestStreak = max(s.LongestStreak, out.CurrentStreak)
		out.LastUpdateDay = &today
		return out, Continued
	default:
		out.CurrentStreak = 1
		out.LastUpdateDay = &today
		return out, Gap
	}
}

// Stale reports whether CurrentStreak overstates the streak as of today: the
// last qualifying day is before yesterday, so the next activity will reset it.
func Stale(s State, today Day) bool {
	if s.LastUpdateDay == nil || s.CurrentStreak == 0 {
		return false
	}
	return today > *s.LastUpdateDay+1
}

// Effective returns the streak a reader should see today without mutating
// state: zero when stale, otherwise CurrentStreak.
func Effective(s State, today Day) int {
	if Stale(s, today) {
		return 0
	}
	return s.CurrentStreak
}

// Tracker applies activities against a clock.
type Tracker struct {
	clock Clock
}

// NewTracker returns a tracker reading today from clock.
func NewTracker(clock Clock) *Tracker {
	return &Tracker{clock: clock}
}

// Record applies a qualifying activity happening now.
func (t *Tracker) Record(s State) (State, Transition) {
	return Apply(s, t.clock.Today())
}

// RecordOn applies a qualifying activity on a specific day.
func (t *Tracker) RecordOn(s State, day Day) (State, Transition) {
	return Apply(s, day)
}

// Today returns the tracker clock's current day.
func (t *Tracker) Today() Day {
	return t.clock.Today()
}
