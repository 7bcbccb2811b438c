// Package capacity decides whether a booking fits a business's concurrent capacity.
//
// Two strategies exist: SlotStrategy reserves consecutive 15-minute slots under
// row locks, RangeStrategy counts overlapping active bookings. A business uses
// exactly one of them for the whole lifecycle of a booking.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

var (
	// ErrUnavailable the requested start time has no capacity left (or never had it)
	ErrUnavailable = errors.New("capacity: requested time is not available")

	// ErrUnknownMode no strategy is registered for the business mode
	ErrUnknownMode = errors.New("capacity: unknown capacity mode")
)

// AvailabilityRequest input of a read-only availability computation
type AvailabilityRequest struct {
	Business     *domain.Business
	Location     *time.Location
	Date         time.Time // calendar date, Y/M/D only
	TotalMinutes int
	Now          time.Time
}

// ClaimRequest input of a reservation check made inside a transaction
type ClaimRequest struct {
	Business     *domain.Business
	Location     *time.Location
	Start        time.Time
	TotalMinutes int
}

// Strategy computes availability and claims capacity
type Strategy interface {
	Mode() domain.CapacityMode

	// AvailableStarts is lock-free; the result is advisory
	AvailableStarts(ctx context.Context, req AvailabilityRequest) ([]time.Time, error)

	// Claim must run inside a transaction. It takes the locks the strategy needs,
	// re-verifies capacity and returns ErrUnavailable when it is gone.
	Claim(ctx context.Context, req ClaimRequest) (Claim, error)
}

// Claim is capacity verified under lock and not yet consumed
type Claim interface {
	// Apply consumes the capacity on behalf of the created booking
	Apply(ctx context.Context, bookingID int64) error
}

// Resolver picks the strategy of a business
type Resolver struct {
	strategies map[domain.CapacityMode]Strategy
	fallback   domain.CapacityMode
}

// NewResolver registers strategies; fallback is used for businesses without an explicit mode
func NewResolver(fallback domain.CapacityMode, strategies ...Strategy) *Resolver {
	r := &Resolver{
		strategies: make(map[domain.CapacityMode]Strategy, len(strategies)),
		fallback:   fallback,
	}
	for _, s := range strategies {
		r.strategies[s.Mode()] = s
	}
	return r
}

// For returns the strategy the business is configured with
func (r *Resolver) For(b *domain.Business) (Strategy, error) {
	mode := b.ModeOr(r.fallback)
	s, ok := r.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return s, nil
}

func durationOf(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
