package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// SlotRepository slot storage used by SlotStrategy
type SlotRepository interface {
	ListByDate(ctx context.Context, businessID int64, date time.Time) ([]*domain.Slot, error)
	LockRange(ctx context.Context, businessID int64, from, to time.Time) ([]*domain.Slot, error)
	DecrementCapacity(ctx context.Context, slotIDs []int64) error
}

// SlotLinker writes booking_slots join rows
type SlotLinker interface {
	AttachSlots(ctx context.Context, bookingID int64, slotIDs []int64) error
}

// SlotStrategy treats generated slots as the single source of truth
type SlotStrategy struct {
	slots         SlotRepository
	linker        SlotLinker
	enforceBreaks bool
}

// NewSlotStrategy creates the slot-based strategy.
// With enforceBreaks a run touching a break is never offered.
func NewSlotStrategy(slots SlotRepository, linker SlotLinker, enforceBreaks bool) *SlotStrategy {
	return &SlotStrategy{slots: slots, linker: linker, enforceBreaks: enforceBreaks}
}

func (s *SlotStrategy) Mode() domain.CapacityMode {
	return domain.CapacityModeSlots
}

func (s *SlotStrategy) AvailableStarts(ctx context.Context, req AvailabilityRequest) ([]time.Time, error) {
	n := domain.RequiredSlots(req.TotalMinutes)
	if n == 0 {
		return []time.Time{}, nil
	}

	window, ok := req.Business.OperatingHours.Window(req.Date, req.Location)
	if !ok {
		return []time.Time{}, nil
	}

	slots, err := s.slots.ListByDate(ctx, req.Business.ID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	var breaks []domain.TimeRange
	if s.enforceBreaks {
		breaks = req.Business.OperatingHours.BreakRanges(req.Date, req.Location)
	}

	return FindSlotStarts(slots, n, window.End, req.Now, breaks), nil
}

// FindSlotStarts returns, in slot order, every start time t such that
// the n slots beginning at t chain without gaps, all have capacity left,
// t is not before now, the run ends no later than closeAt and touches no break.
// slots must be ordered by StartTime.
func FindSlotStarts(slots []*domain.Slot, n int, closeAt, now time.Time, breaks []domain.TimeRange) []time.Time {
	starts := make([]time.Time, 0)
	if n <= 0 {
		return starts
	}

	for i := 0; i+n <= len(slots); i++ {
		first := slots[i]
		if first.StartTime.Before(now) {
			continue
		}

		run := slots[i : i+n]
		if !usableRun(run) {
			continue
		}

		span := domain.TimeRange{Start: first.StartTime, End: run[n-1].EndTime}
		if span.End.After(closeAt) {
			continue
		}
		if overlapsAny(span, breaks) {
			continue
		}

		starts = append(starts, first.StartTime)
	}

	return starts
}

// usableRun checks chaining and remaining capacity of every slot in the run
func usableRun(run []*domain.Slot) bool {
	for j, slot := range run {
		if !slot.HasCapacity() {
			return false
		}
		if j > 0 && !run[j-1].Chains(slot) {
			return false
		}
	}
	return true
}

func overlapsAny(r domain.TimeRange, ranges []domain.TimeRange) bool {
	for _, other := range ranges {
		if r.Overlaps(other) {
			return true
		}
	}
	return false
}

func (s *SlotStrategy) Claim(ctx context.Context, req ClaimRequest) (Claim, error) {
	n := domain.RequiredSlots(req.TotalMinutes)
	if n == 0 {
		return nil, ErrUnavailable
	}

	end := req.Start.Add(durationOf(req.TotalMinutes))
	locked, err := s.slots.LockRange(ctx, req.Business.ID, req.Start, end)
	if err != nil {
		return nil, fmt.Errorf("lock slots: %w", err)
	}

	if len(locked) != n || !locked[0].StartTime.Equal(req.Start) || !usableRun(locked) {
		return nil, ErrUnavailable
	}

	window, ok := req.Business.OperatingHours.Window(req.Start.In(req.Location), req.Location)
	if !ok || locked[n-1].EndTime.After(window.End) {
		return nil, ErrUnavailable
	}

	ids := make([]int64, 0, n)
	for _, slot := range locked {
		ids = append(ids, slot.ID)
	}

	return &slotClaim{slots: s.slots, linker: s.linker, slotIDs: ids}, nil
}

type slotClaim struct {
	slots   SlotRepository
	linker  SlotLinker
	slotIDs []int64
}

func (c *slotClaim) Apply(ctx context.Context, bookingID int64) error {
	if err := c.linker.AttachSlots(ctx, bookingID, c.slotIDs); err != nil {
		return fmt.Errorf("attach slots: %w", err)
	}
	if err := c.slots.DecrementCapacity(ctx, c.slotIDs); err != nil {
		return fmt.Errorf("decrement capacity: %w", err)
	}
	return nil
}
