package domain

import (
	"slices"
	"strings"
	"time"
)

// Service is an offering of a business; its duration drives slot consumption
type Service struct {
	ID              int64
	BusinessID      int64
	Name            string
	DurationMinutes int
	PriceCents      int64
	Currency        string
	Active          bool
	Position        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks name, duration and price
func (s *Service) Validate() error {
	var errs ValidationErrors

	name := strings.TrimSpace(s.Name)
	if name == "" {
		errs.Add("name", "is required")
	} else if len(name) > MaxServiceNameLength {
		errs.Add("name", "must be at most %d characters", MaxServiceNameLength)
	}
	if !slices.Contains(AllowedServiceDurations, s.DurationMinutes) {
		errs.Add("duration_minutes", "must be one of %v", AllowedServiceDurations)
	}
	if s.PriceCents < 0 {
		errs.Add("price", "must not be negative")
	}

	return errs.Err()
}

// TotalDuration sums service durations in minutes
func TotalDuration(services []*Service) int {
	total := 0
	for _, s := range services {
		total += s.DurationMinutes
	}
	return total
}

// TotalPriceCents sums service prices
func TotalPriceCents(services []*Service) int64 {
	var total int64
	for _, s := range services {
		total += s.PriceCents
	}
	return total
}

// RequiredSlots is the number of consecutive slots a duration occupies: ceil(minutes / granularity)
func RequiredSlots(totalMinutes int) int {
	if totalMinutes <= 0 {
		return 0
	}
	return (totalMinutes + SlotGranularityMinutes - 1) / SlotGranularityMinutes
}
