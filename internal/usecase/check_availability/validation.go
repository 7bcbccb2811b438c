package check_availability

import (
	"fmt"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

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
