package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// Weekdays keys of OperatingHours in calendar order
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayName returns the OperatingHours key for a weekday
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Break is a pause inside the working day, half-open [Start, End)
type Break struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
}

// DayHours is the schedule of one weekday
type DayHours struct {
	Open   types.TimeString `json:"open,omitempty"`
	Close  types.TimeString `json:"close,omitempty"`
	Closed bool             `json:"closed"`
	Breaks []Break          `json:"breaks,omitempty"`
}

// TimeRange is a half-open [Start, End) interval of absolute time
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open ranges intersect
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// OperatingHours maps a weekday name to its schedule
type OperatingHours map[string]DayHours

// DefaultOperatingHours Mon-Sat 09:00-17:00 with a lunch break, Sunday closed
func DefaultOperatingHours() OperatingHours {
	hours := make(OperatingHours, len(Weekdays))
	for _, day := range Weekdays {
		if day == "sunday" {
			hours[day] = DayHours{Closed: true}
			continue
		}
		hours[day] = DayHours{
			Open:   "09:00",
			Close:  "17:00",
			Breaks: []Break{{Start: "12:00", End: "13:00"}},
		}
	}
	return hours
}

// Validate checks every weekday independently and returns ValidationErrors or nil
func (h OperatingHours) Validate() error {
	var errs ValidationErrors

	known := make(map[string]struct{}, len(Weekdays))
	for _, day := range Weekdays {
		known[day] = struct{}{}
	}
	unknown := make([]string, 0)
	for day := range h {
		if _, ok := known[day]; !ok {
			unknown = append(unknown, day)
		}
	}
	sort.Strings(unknown)
	for _, day := range unknown {
		errs.Add("operating_hours."+day, "unknown weekday")
	}

	for _, day := range Weekdays {
		hours, ok := h[day]
		if !ok || hours.Closed {
			continue
		}
		validateDay(&errs, "operating_hours."+day, hours)
	}

	return errs.Err()
}

func validateDay(errs *ValidationErrors, field string, hours DayHours) {
	if hours.Open.IsZero() || hours.Close.IsZero() {
		errs.Add(field, "open and close times are required")
		return
	}
	if hours.Open.Validate() != nil || hours.Close.Validate() != nil {
		errs.Add(field, "times must be in HH:MM format")
		return
	}
	if !hours.Close.IsAfter(hours.Open) {
		errs.Add(field, "close time must be after open time")
		return
	}

	breaks := make([]Break, 0, len(hours.Breaks))
	for i, br := range hours.Breaks {
		breakField := fmt.Sprintf("%s.breaks[%d]", field, i)
		if br.Start.Validate() != nil || br.End.Validate() != nil {
			errs.Add(breakField, "times must be in HH:MM format")
			continue
		}
		if !br.Start.IsBefore(br.End) {
			errs.Add(breakField, "break start must be before break end")
			continue
		}
		if br.Start.IsBefore(hours.Open) || br.End.IsAfter(hours.Close) {
			errs.Add(breakField, "break must be within operating hours")
			continue
		}
		breaks = append(breaks, br)
	}

	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })
	for i := 0; i+1 < len(breaks); i++ {
		if breaks[i].End.IsAfter(breaks[i+1].Start) {
			errs.Add(field+".breaks", "break %s-%s overlaps %s-%s",
				breaks[i].Start, breaks[i].End, breaks[i+1].Start, breaks[i+1].End)
		}
	}
}

// HoursFor returns the schedule for a weekday, ok=false if none is configured
func (h OperatingHours) HoursFor(day time.Weekday) (DayHours, bool) {
	hours, ok := h[WeekdayName(day)]
	return hours, ok
}

// IsOpen reports whether the business works on the given weekday
func (h OperatingHours) IsOpen(day time.Weekday) bool {
	hours, ok := h.HoursFor(day)
	return ok && !hours.Closed && !hours.Open.IsZero() && !hours.Close.IsZero()
}

// IsWithinHours reports whether t (already in business local time) is inside
// [open, close) and not on a break
func (h OperatingHours) IsWithinHours(t time.Time) bool {
	if !h.IsOpen(t.Weekday()) {
		return false
	}
	hours, _ := h.HoursFor(t.Weekday())
	tod := types.NewTimeString(t)
	if tod.IsBefore(hours.Open) || !tod.IsBefore(hours.Close) {
		return false
	}
	return !h.IsOnBreak(t)
}

// IsOnBreak reports whether t (business local time) falls in [break.start, break.end)
func (h OperatingHours) IsOnBreak(t time.Time) bool {
	if !h.IsOpen(t.Weekday()) {
		return false
	}
	hours, _ := h.HoursFor(t.Weekday())
	tod := types.NewTimeString(t)
	for _, br := range hours.Breaks {
		if !tod.IsBefore(br.Start) && tod.IsBefore(br.End) {
			return true
		}
	}
	return false
}

// CivilDate returns midnight in loc of the calendar date carried by date's Y/M/D
func CivilDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Window resolves open/close of the given calendar date to absolute times in loc
func (h OperatingHours) Window(date time.Time, loc *time.Location) (TimeRange, bool) {
	local := CivilDate(date, loc)
	if !h.IsOpen(local.Weekday()) {
		return TimeRange{}, false
	}
	hours, _ := h.HoursFor(local.Weekday())
	open, err := hours.Open.On(local, loc)
	if err != nil {
		return TimeRange{}, false
	}
	closeAt, err := hours.Close.On(local, loc)
	if err != nil || !closeAt.After(open) {
		return TimeRange{}, false
	}
	return TimeRange{Start: open, End: closeAt}, true
}

// BreakRanges resolves the breaks of the given calendar date to absolute times in loc
func (h OperatingHours) BreakRanges(date time.Time, loc *time.Location) []TimeRange {
	local := CivilDate(date, loc)
	if !h.IsOpen(local.Weekday()) {
		return nil
	}
	hours, _ := h.HoursFor(local.Weekday())
	ranges := make([]TimeRange, 0, len(hours.Breaks))
	for _, br := range hours.Breaks {
		start, err := br.Start.On(local, loc)
		if err != nil {
			continue
		}
		end, err := br.End.On(local, loc)
		if err != nil {
			continue
		}
		ranges = append(ranges, TimeRange{Start: start, End: end})
	}
	return ranges
}

// Value implements driver.Valuer (stored as JSONB).
// Returned as string: lib/pq would encode []byte as bytea.
func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (h *OperatingHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*h = OperatingHours{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("domain.OperatingHours: unsupported scan type %T", src)
	}
	hours := OperatingHours{}
	if err := json.Unmarshal(data, &hours); err != nil {
		return fmt.Errorf("domain.OperatingHours: %w", err)
	}
	*h = hours
	return nil
}

// OverlapsBreak reports whether r intersects any break of the local day r starts on
func (h OperatingHours) OverlapsBreak(r TimeRange, loc *time.Location) bool {
	for _, br := range h.BreakRanges(r.Start.In(loc), loc) {
		if br.Overlaps(r) {
			return true
		}
	}
	return false
}
