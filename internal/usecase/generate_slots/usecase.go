package generate_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
)

// UseCase use case для генерации слотов бизнеса
type UseCase struct {
	businessRepo BusinessRepository
	slotRepo     SlotRepository
	metrics      Metrics
	windowDays   int
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// windowDays - размер скользящего окна для запросов без даты
func NewUseCase(
	businessRepo BusinessRepository,
	slotRepo SlotRepository,
	metrics Metrics,
	windowDays int,
	logger Logger,
) *UseCase {
	if windowDays <= 0 {
		windowDays = domain.DefaultRollingWindowDays
	}
	return &UseCase{
		businessRepo: businessRepo,
		slotRepo:     slotRepo,
		metrics:      metrics,
		windowDays:   windowDays,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute генерирует слоты бизнеса на дату или на окно windowDays дней
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Получаем бизнес
	business, err := uc.businessRepo.GetByID(ctx, req.BusinessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			uc.logger.Warn("GenerateSlots: business id=%d not found", req.BusinessID)
			return nil, ErrBusinessNotFound
		}
		uc.logger.Error("GenerateSlots: failed to get business id=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get business: %v", ErrInternal, err)
	}
	if req.UserID != 0 && business.OwnerID != req.UserID {
		uc.logger.Warn("GenerateSlots: user=%d is not the owner of business=%d", req.UserID, business.ID)
		return nil, ErrAccessDenied
	}

	// 2. Определяем даты
	var dates []time.Time
	if req.Date != nil {
		dates = []time.Time{*req.Date}
	} else {
		dates, err = uc.WindowDates(business)
		if err != nil {
			return nil, err
		}
	}

	// 3. Генерируем по дням
	resp := &Response{BusinessID: business.ID, Days: make([]DayResult, 0, len(dates))}
	for _, date := range dates {
		created, err := uc.GenerateForDate(ctx, business, date)
		if err != nil {
			return nil, err
		}
		resp.Days = append(resp.Days, DayResult{Date: date, Created: created})
		resp.Created += created
	}

	return resp, nil
}

// GenerateForDate создает недостающие слоты бизнеса на календарную дату
// Повторный вызов для той же даты создает 0 слотов
func (uc *UseCase) GenerateForDate(ctx context.Context, business *domain.Business, date time.Time) (int, error) {
	loc, err := business.Location()
	if err != nil {
		uc.metrics.IncSlotGenerationFailure()
		uc.logger.Error("GenerateSlots: business=%d timezone %q: %v", business.ID, business.Timezone, err)
		return 0, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}

	slots := BuildSlots(business, date, loc)
	if len(slots) == 0 {
		uc.logger.Info("GenerateSlots: business=%d date=%s closed, created=0", business.ID, date.Format(domain.DateFormat))
		return 0, nil
	}

	created, err := uc.slotRepo.InsertBatch(ctx, slots)
	if err != nil {
		uc.metrics.IncSlotGenerationFailure()
		uc.logger.Error("GenerateSlots: business=%d date=%s error=%v", business.ID, date.Format(domain.DateFormat), err)
		return 0, fmt.Errorf("%w: failed to insert slots: %v", ErrInternal, err)
	}

	uc.metrics.AddSlotsGenerated(created)
	uc.logger.Info("GenerateSlots: business=%d date=%s created=%d", business.ID, date.Format(domain.DateFormat), created)

	return created, nil
}

// Tomorrow возвращает завтрашнюю календарную дату в часовом поясе бизнеса
func (uc *UseCase) Tomorrow(business *domain.Business) (time.Time, error) {
	loc, err := business.Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	today := domain.CivilDate(uc.timeProvider.Now().In(loc), loc)
	return today.AddDate(0, 0, 1), nil
}

// WindowDates возвращает windowDays календарных дат начиная с сегодняшней в часовом поясе бизнеса
func (uc *UseCase) WindowDates(business *domain.Business) ([]time.Time, error) {
	loc, err := business.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	today := domain.CivilDate(uc.timeProvider.Now().In(loc), loc)

	dates := make([]time.Time, 0, uc.windowDays)
	for i := 0; i < uc.windowDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates, nil
}

// BuildSlots разбивает рабочее окно дня на 15-минутные слоты
// Перерывы не вырезаются: их учитывают расчет доступности и бронирование
func BuildSlots(business *domain.Business, date time.Time, loc *time.Location) []domain.Slot {
	window, ok := business.OperatingHours.Window(date, loc)
	if !ok {
		return nil
	}

	day := domain.CivilDate(date, loc)
	slots := make([]domain.Slot, 0, int(window.End.Sub(window.Start)/domain.SlotGranularity))
	for start := window.Start; !start.Add(domain.SlotGranularity).After(window.End); start = start.Add(domain.SlotGranularity) {
		slots = append(slots, domain.Slot{
			BusinessID:       business.ID,
			StartTime:        start,
			EndTime:          start.Add(domain.SlotGranularity),
			Date:             day,
			Capacity:         business.Capacity,
			OriginalCapacity: business.Capacity,
		})
	}

	return slots
}
