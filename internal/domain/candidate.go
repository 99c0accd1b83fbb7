package domain

import "time"

// Candidate is the ATS-owned record this service reads to resolve the
// counterpart address and the hiring period.
type Candidate struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	AppliedAt time.Time  `db:"applied_at"`
	StartedAt *time.Time `db:"started_at"`
}

// HiringWindow runs from the application date to the employment start date,
// or to now while the candidate has not started.
func (c Candidate) HiringWindow(now time.Time) HiringWindow {
	end := now
	if c.StartedAt != nil {
		end = *c.StartedAt
	}
	return HiringWindow{Start: c.AppliedAt, End: end}
}

type HiringWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w HiringWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Expand widens the window by pad on both sides.
func (w HiringWindow) Expand(pad time.Duration) HiringWindow {
	return HiringWindow{Start: w.Start.Add(-pad), End: w.End.Add(pad)}
}
