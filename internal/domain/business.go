package domain

import (
	"errors"
	"regexp"
	"time"
)

// CapacityMode selects how a business enforces its concurrent capacity
type CapacityMode string

const (
	// CapacityModeSlots reserves consecutive 15-minute slots under row locks
	CapacityModeSlots CapacityMode = "slots"
	// CapacityModeRange counts overlapping active bookings against the business capacity
	CapacityModeRange CapacityMode = "range"
)

// Valid reports whether the mode is one of the known strategies
func (m CapacityMode) Valid() bool {
	switch m {
	case CapacityModeSlots, CapacityModeRange:
		return true
	default:
		return false
	}
}

var slugPattern = regexp.MustCompile(DefaultSlugPattern)

// Business is the tenant root
type Business struct {
	ID             int64
	OwnerID        int64
	Slug           string
	Name           string
	Capacity       int
	Timezone       string
	CapacityMode   CapacityMode // empty means the configured default
	Currency       string
	OperatingHours OperatingHours
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Location returns the business time zone, falling back to DefaultTimezone
func (b *Business) Location() (*time.Location, error) {
	tz := b.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}

// ModeOr returns the business capacity mode or fallback when unset
func (b *Business) ModeOr(fallback CapacityMode) CapacityMode {
	if b.CapacityMode == "" {
		return fallback
	}
	return b.CapacityMode
}

// Validate checks slug, capacity, time zone and operating hours
func (b *Business) Validate() error {
	var errs ValidationErrors

	if len(b.Slug) < MinSlugLength || len(b.Slug) > MaxSlugLength {
		errs.Add("slug", "must be %d-%d characters", MinSlugLength, MaxSlugLength)
	} else if !slugPattern.MatchString(b.Slug) {
		errs.Add("slug", "only lowercase letters, digits and hyphens are allowed")
	}
	if b.Capacity < MinCapacity || b.Capacity > MaxCapacity {
		errs.Add("capacity", "must be between %d and %d", MinCapacity, MaxCapacity)
	}
	if _, err := b.Location(); err != nil {
		errs.Add("timezone", "unknown time zone %q", b.Timezone)
	}
	if b.CapacityMode != "" && !b.CapacityMode.Valid() {
		errs.Add("capacity_mode", "unknown capacity mode %q", b.CapacityMode)
	}
	if err := b.OperatingHours.Validate(); err != nil {
		var hoursErrs ValidationErrors
		if errors.As(err, &hoursErrs) {
			errs = append(errs, hoursErrs...)
		}
	}

	return errs.Err()
}
