package domain

import "time"

// Slot is a fixed 15-minute bookable unit with a remaining-capacity counter.
// Date is derived from StartTime in the business time zone and written once by the generator.
type Slot struct {
	ID               int64
	BusinessID       int64
	StartTime        time.Time
	EndTime          time.Time
	Date             time.Time
	Capacity         int
	OriginalCapacity int
	CreatedAt        time.Time
}

// HasCapacity returns true if at least one more booking fits
func (s *Slot) HasCapacity() bool {
	return s.Capacity > 0
}

// Chains reports whether next starts exactly where s ends
func (s *Slot) Chains(next *Slot) bool {
	return s.EndTime.Equal(next.StartTime)
}
