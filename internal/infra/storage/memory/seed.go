package memory

import (
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// DemoOwnerID владелец демо-бизнеса (заголовок X-User-ID для dashboard)
const DemoOwnerID int64 = 1

// SeedDemo заполняет хранилище демо-бизнесом для локального запуска без Postgres
func (s *Store) SeedDemo() {
	now := s.now()

	s.AddBusiness(domain.Business{
		ID:             1,
		OwnerID:        DemoOwnerID,
		Slug:           "demo-salon",
		Name:           "Demo Salon",
		Capacity:       2,
		Timezone:       domain.DefaultTimezone,
		Currency:       domain.DefaultCurrency,
		OperatingHours: domain.DefaultOperatingHours(),
		CreatedAt:      now,
		UpdatedAt:      now,
	})

	demo := []struct {
		name     string
		duration int
		price    int64
	}{
		{"Haircut", 30, 150000},
		{"Hair wash", 15, 50000},
		{"Coloring", 90, 600000},
	}
	for i, d := range demo {
		s.AddService(domain.Service{
			ID:              int64(i + 1),
			BusinessID:      1,
			Name:            d.name,
			DurationMinutes: d.duration,
			PriceCents:      d.price,
			Currency:        domain.DefaultCurrency,
			Active:          true,
			Position:        i + 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
}
