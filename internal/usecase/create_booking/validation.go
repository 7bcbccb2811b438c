package create_booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Slug == "" {
		return fmt.Errorf("%w: business slug is required", ErrInvalidInput)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	// Валидируем формат времени
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	return nil
}

// uniqueIDs убирает повторы, сохраняя порядок
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// validateServices все запрошенные услуги найдены у бизнеса и активны
func validateServices(services []*domain.Service, ids []int64) error {
	if len(services) != len(ids) {
		return fmt.Errorf("%w: found %d of %d", ErrServicesInvalid, len(services), len(ids))
	}
	for _, s := range services {
		if !s.Active {
			return fmt.Errorf("%w: service id=%d is inactive", ErrServicesInvalid, s.ID)
		}
	}
	return nil
}

// validateBooking проверяет поля клиента, будущее время и (если checkBreaks) пересечение с перерывом
func validateBooking(booking *domain.Booking, business *domain.Business, loc *time.Location, rules domain.BookingRules, checkBreaks bool, now time.Time) error {
	var errs domain.ValidationErrors
	if err := booking.Validate(rules, now); err != nil && !errors.As(err, &errs) {
		return err
	}

	if checkBreaks && business.OperatingHours.OverlapsBreak(booking.Range(), loc) {
		errs.Add("scheduled_at", "overlaps a break")
	}

	if err := errs.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
