package domain

import "time"

// Slot geometry
const (
	SlotGranularityMinutes = 15
	SlotGranularity        = SlotGranularityMinutes * time.Minute
)

// Default configuration values
const (
	DefaultTimezone          = "Asia/Ho_Chi_Minh"
	DefaultRollingWindowDays = 7
	DefaultCurrency          = "VND"
)

// Business validation constants
const (
	MinCapacity             = 1
	MaxCapacity             = 50
	MinSlugLength           = 3
	MaxSlugLength           = 50
	MaxServiceNameLength    = 100
	MaxCustomerNameLength   = 100
	MaxCustomerPhoneLength  = 20
	MaxCustomerEmailLength  = 255
	MaxNotesLength          = 500
	DefaultPhonePattern     = `^0\d{9}$`
	DefaultEmailPattern     = `^[^@\s]+@[^@\s]+\.[^@\s]+$`
	DefaultSlugPattern      = `^[a-z0-9-]+$`
	CapacityUsageWindowSpan = time.Minute
)

// AllowedServiceDurations durations offered by the service catalog
var AllowedServiceDurations = []int{15, 30, 45, 60, 90, 120}

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses bookings that occupy capacity for overlap accounting
var ActiveStatuses = []BookingStatus{
	StatusConfirmed,
	StatusInProgress,
}
