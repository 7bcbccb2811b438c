package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// OverlapCounter overlap accounting over active bookings
type OverlapCounter interface {
	CountOverlappingActive(ctx context.Context, businessID int64, from, to time.Time) (int, error)
	ListActiveRanges(ctx context.Context, businessID int64, from, to time.Time) ([]domain.TimeRange, error)
}

// BusinessLocker serializes range checks of one business
type BusinessLocker interface {
	LockByID(ctx context.Context, id int64) error
}

// RangeStrategy compares the number of overlapping active bookings with business capacity.
// Breaks are always excluded.
type RangeStrategy struct {
	counter OverlapCounter
	locker  BusinessLocker
}

func NewRangeStrategy(counter OverlapCounter, locker BusinessLocker) *RangeStrategy {
	return &RangeStrategy{counter: counter, locker: locker}
}

func (s *RangeStrategy) Mode() domain.CapacityMode {
	return domain.CapacityModeRange
}

func (s *RangeStrategy) AvailableStarts(ctx context.Context, req AvailabilityRequest) ([]time.Time, error) {
	if req.TotalMinutes <= 0 {
		return []time.Time{}, nil
	}

	window, ok := req.Business.OperatingHours.Window(req.Date, req.Location)
	if !ok {
		return []time.Time{}, nil
	}

	booked, err := s.counter.ListActiveRanges(ctx, req.Business.ID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	breaks := req.Business.OperatingHours.BreakRanges(req.Date, req.Location)

	return FindRangeStarts(window, durationOf(req.TotalMinutes), req.Now, breaks, booked, req.Business.Capacity), nil
}

// FindRangeStarts walks the window in slot-granularity steps and keeps every start
// whose [start, start+d) fits before close, is not in the past, avoids breaks and
// overlaps fewer than capacity booked ranges.
func FindRangeStarts(window domain.TimeRange, d time.Duration, now time.Time, breaks, booked []domain.TimeRange, capacity int) []time.Time {
	starts := make([]time.Time, 0)
	if d <= 0 {
		return starts
	}

	for t := window.Start; !t.Add(d).After(window.End); t = t.Add(domain.SlotGranularity) {
		if t.Before(now) {
			continue
		}
		candidate := domain.TimeRange{Start: t, End: t.Add(d)}
		if overlapsAny(candidate, breaks) {
			continue
		}
		if countOverlaps(candidate, booked) >= capacity {
			continue
		}
		starts = append(starts, t)
	}

	return starts
}

func countOverlaps(r domain.TimeRange, ranges []domain.TimeRange) int {
	count := 0
	for _, other := range ranges {
		if r.Overlaps(other) {
			count++
		}
	}
	return count
}

func (s *RangeStrategy) Claim(ctx context.Context, req ClaimRequest) (Claim, error) {
	if req.TotalMinutes <= 0 {
		return nil, ErrUnavailable
	}

	// only starts AvailableStarts could have offered
	end := req.Start.Add(durationOf(req.TotalMinutes))
	window, ok := req.Business.OperatingHours.Window(req.Start.In(req.Location), req.Location)
	if !ok || req.Start.Before(window.Start) || end.After(window.End) ||
		req.Start.Sub(window.Start)%domain.SlotGranularity != 0 {
		return nil, ErrUnavailable
	}

	if err := s.locker.LockByID(ctx, req.Business.ID); err != nil {
		return nil, fmt.Errorf("lock business: %w", err)
	}

	count, err := s.counter.CountOverlappingActive(ctx, req.Business.ID, req.Start, end)
	if err != nil {
		return nil, fmt.Errorf("count overlapping bookings: %w", err)
	}
	if count >= req.Business.Capacity {
		return nil, ErrUnavailable
	}

	return noopClaim{}, nil
}

// noopClaim nothing to consume: the booking row itself is the ledger
type noopClaim struct{}

func (noopClaim) Apply(context.Context, int64) error {
	return nil
}
