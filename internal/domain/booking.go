package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
)

// BookingSource tells how a booking entered the system
type BookingSource string

const (
	SourceOnline BookingSource = "online"
	SourceWalkIn BookingSource = "walk_in"
)

var (
	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("domain: invalid booking status")

	// ErrInvalidSource is returned for an unknown source value
	ErrInvalidSource = errors.New("domain: invalid booking source")

	// ErrInvalidTransition is returned when the status change is not allowed
	ErrInvalidTransition = errors.New("domain: invalid booking status transition")
)

// ParseBookingStatus converts a raw value into a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Valid reports whether the status is known
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsActive returns true for bookings counted by overlap accounting
func (s BookingStatus) IsActive() bool {
	switch s {
	case StatusConfirmed, StatusInProgress:
		return true
	case StatusPending, StatusCompleted, StatusCancelled, StatusNoShow:
		return false
	default:
		return false
	}
}

// IsTerminal returns true when no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	case StatusPending, StatusConfirmed, StatusInProgress:
		return false
	default:
		return true
	}
}

// CanTransitionTo returns true if staff may move a booking from s to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusInProgress || next == StatusCancelled || next == StatusNoShow
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return false
	default:
		return false
	}
}

// ParseBookingSource converts a raw value into a BookingSource
func ParseBookingSource(s string) (BookingSource, error) {
	source := BookingSource(s)
	switch source {
	case SourceOnline, SourceWalkIn:
		return source, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// Booking is a customer appointment for one or more services
type Booking struct {
	ID            int64
	BusinessID    int64
	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	Notes         *string
	ScheduledAt   time.Time
	Status        BookingStatus
	Source        BookingSource
	StartedAt     *time.Time
	CompletedAt   *time.Time

	Services []*Service
	SlotIDs  []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalDuration returns the summed service duration in minutes
func (b *Booking) TotalDuration() int {
	return TotalDuration(b.Services)
}

// TotalPriceCents returns the summed service price
func (b *Booking) TotalPriceCents() int64 {
	return TotalPriceCents(b.Services)
}

// EndTime is ScheduledAt plus the summed service durations
func (b *Booking) EndTime() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.TotalDuration()) * time.Minute)
}

// Range returns [ScheduledAt, EndTime)
func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.ScheduledAt, End: b.EndTime()}
}

// Transition moves the booking to next, stamping StartedAt/CompletedAt
func (b *Booking) Transition(next BookingStatus, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}

	switch next {
	case StatusInProgress:
		b.StartedAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	case StatusPending, StatusConfirmed, StatusCancelled, StatusNoShow:
	}

	b.Status = next
	return nil
}

// BookingRules holds the customer field formats
type BookingRules struct {
	Phone *regexp.Regexp
	Email *regexp.Regexp
}

// DefaultBookingRules returns the built-in phone and email patterns
func DefaultBookingRules() BookingRules {
	return BookingRules{
		Phone: regexp.MustCompile(DefaultPhonePattern),
		Email: regexp.MustCompile(DefaultEmailPattern),
	}
}

// Validate checks customer fields, services and the future-time rule for online bookings
func (b *Booking) Validate(rules BookingRules, now time.Time) error {
	var errs ValidationErrors

	name := strings.TrimSpace(b.CustomerName)
	switch {
	case name == "":
		errs.Add("customer_name", "is required")
	case len(name) > MaxCustomerNameLength:
		errs.Add("customer_name", "must be at most %d characters", MaxCustomerNameLength)
	}

	phone := strings.TrimSpace(b.CustomerPhone)
	switch {
	case phone == "":
		errs.Add("customer_phone", "is required")
	case len(phone) > MaxCustomerPhoneLength:
		errs.Add("customer_phone", "must be at most %d characters", MaxCustomerPhoneLength)
	case rules.Phone != nil && !rules.Phone.MatchString(phone):
		errs.Add("customer_phone", "has invalid format")
	}

	if b.CustomerEmail != nil && strings.TrimSpace(*b.CustomerEmail) != "" {
		email := strings.TrimSpace(*b.CustomerEmail)
		switch {
		case len(email) > MaxCustomerEmailLength:
			errs.Add("customer_email", "must be at most %d characters", MaxCustomerEmailLength)
		case rules.Email != nil && !rules.Email.MatchString(email):
			errs.Add("customer_email", "has invalid format")
		}
	}

	if b.Notes != nil && len(*b.Notes) > MaxNotesLength {
		errs.Add("notes", "must be at most %d characters", MaxNotesLength)
	}

	if len(b.Services) == 0 {
		errs.Add("services", "at least one service is required")
	}

	if b.Source == SourceOnline && !b.ScheduledAt.After(now) {
		errs.Add("scheduled_at", "must be in the future")
	}

	return errs.Err()
}

// BookingsFilter фильтр для получения бронирований бизнеса
type BookingsFilter struct {
	BusinessID int64          // Обязательный параметр
	From       *time.Time     // scheduled_at >= From (опционально)
	To         *time.Time     // scheduled_at < To (опционально)
	Status     *BookingStatus // Фильтр по статусу (опционально)
	Source     *BookingSource // Фильтр по источнику (опционально)
}
