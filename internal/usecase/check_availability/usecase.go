package check_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SlotBooking/internal/capacity"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// UseCase use case для расчета доступных времен начала
type UseCase struct {
	businessRepo BusinessRepository
	serviceRepo  ServiceRepository
	strategies   StrategyResolver
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	businessRepo BusinessRepository,
	serviceRepo ServiceRepository,
	strategies StrategyResolver,
	logger Logger,
) *UseCase {
	return &UseCase{
		businessRepo: businessRepo,
		serviceRepo:  serviceRepo,
		strategies:   strategies,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case расчета доступности
// Чтение без блокировок: результат может устареть к моменту бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CheckAvailability: business=%s, services=%v, date=%s",
		req.Slug, req.ServiceIDs, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if req.Date.IsZero() {
		uc.logger.Warn("CheckAvailability: date is required")
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	// 2. Получаем бизнес
	business, err := uc.businessRepo.GetBySlug(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			uc.logger.Warn("CheckAvailability: business slug=%s not found", req.Slug)
			return nil, ErrBusinessNotFound
		}
		uc.logger.Error("CheckAvailability: failed to get business slug=%s: %v", req.Slug, err)
		return nil, fmt.Errorf("%w: failed to get business: %v", ErrInternal, err)
	}

	resp := &Response{
		Date:           req.Date,
		BusinessID:     business.ID,
		AvailableSlots: []types.TimeString{},
	}

	// 3. Пустой набор услуг - пустой ответ, не ошибка
	ids := uniqueIDs(req.ServiceIDs)
	if len(ids) == 0 {
		return resp, nil
	}

	// 4. Проверяем, что все услуги принадлежат бизнесу
	services, err := uc.serviceRepo.GetByIDs(ctx, business.ID, ids)
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}
	if err := validateServices(services, ids); err != nil {
		uc.logger.Warn("CheckAvailability: business=%d: %v", business.ID, err)
		return nil, err
	}

	loc, err := business.Location()
	if err != nil {
		uc.logger.Error("CheckAvailability: business=%d timezone %q: %v", business.ID, business.Timezone, err)
		return nil, fmt.Errorf("%w: invalid timezone: %v", ErrInternal, err)
	}

	strategy, err := uc.strategies.For(business)
	if err != nil {
		uc.logger.Error("CheckAvailability: business=%d: %v", business.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 5. Считаем доступные времена начала
	resp.TotalMinutes = domain.TotalDuration(services)
	starts, err := strategy.AvailableStarts(ctx, capacity.AvailabilityRequest{
		Business:     business,
		Location:     loc,
		Date:         domain.CivilDate(req.Date, loc),
		TotalMinutes: resp.TotalMinutes,
		Now:          uc.timeProvider.Now(),
	})
	if err != nil {
		uc.logger.Error("CheckAvailability: business=%d: failed to compute availability: %v", business.ID, err)
		return nil, fmt.Errorf("%w: failed to compute availability: %v", ErrInternal, err)
	}

	for _, start := range starts {
		resp.AvailableSlots = append(resp.AvailableSlots, types.NewTimeString(start.In(loc)))
	}

	uc.logger.Info("CheckAvailability: business=%d, date=%s, mode=%s, %d start times",
		business.ID, req.Date.Format(domain.DateFormat), strategy.Mode(), len(resp.AvailableSlots))

	return resp, nil
}
