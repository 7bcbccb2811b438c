package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/capacity"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// UseCase use case для создания онлайн-бронирования
type UseCase struct {
	businessRepo BusinessRepository
	serviceRepo  ServiceRepository
	bookingRepo  BookingRepository
	strategies   StrategyResolver
	txManager    TransactionManager
	metrics      Metrics
	opts         Options
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	businessRepo BusinessRepository,
	serviceRepo ServiceRepository,
	bookingRepo BookingRepository,
	strategies StrategyResolver,
	txManager TransactionManager,
	metrics Metrics,
	opts Options,
	logger Logger,
) *UseCase {
	return &UseCase{
		businessRepo: businessRepo,
		serviceRepo:  serviceRepo,
		bookingRepo:  bookingRepo,
		strategies:   strategies,
		txManager:    txManager,
		metrics:      metrics,
		opts:         opts,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Вместимость проверяется повторно под блокировкой; при гонке проигравший получает ErrSlotUnavailable
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: business=%s, services=%v, date=%s, time=%s",
		req.Slug, req.ServiceIDs, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем бизнес
	business, err := uc.businessRepo.GetBySlug(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			uc.logger.Warn("CreateBooking: business slug=%s not found", req.Slug)
			return nil, ErrBusinessNotFound
		}
		uc.logger.Error("CreateBooking: failed to get business slug=%s: %v", req.Slug, err)
		return nil, fmt.Errorf("%w: failed to get business: %v", ErrInternal, err)
	}

	// 4. Проверяем услуги до открытия транзакции
	ids := uniqueIDs(req.ServiceIDs)
	if len(ids) == 0 {
		uc.logger.Warn("CreateBooking: business=%d: no services provided", business.ID)
		return nil, ErrNoServices
	}

	services, err := uc.serviceRepo.GetByIDs(ctx, business.ID, ids)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}
	if err := validateServices(services, ids); err != nil {
		uc.logger.Warn("CreateBooking: business=%d: %v", business.ID, err)
		return nil, err
	}

	// 5. Переводим дату и время в момент в часовом поясе бизнеса
	loc, err := business.Location()
	if err != nil {
		uc.logger.Error("CreateBooking: business=%d timezone %q: %v", business.ID, business.Timezone, err)
		return nil, fmt.Errorf("%w: invalid timezone: %v", ErrInternal, err)
	}
	scheduledAt, err := req.StartTime.On(req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	strategy, err := uc.strategies.For(business)
	if err != nil {
		uc.logger.Error("CreateBooking: business=%d: %v", business.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	checkBreaks := uc.opts.EnforceBreaks || strategy.Mode() == domain.CapacityModeRange
	totalMinutes := domain.TotalDuration(services)

	var result *domain.Booking

	// 6. Блокировка, повторная проверка, создание и списание вместимости - одна транзакция
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 6.1. Блокируем слоты (или бизнес) и перепроверяем вместимость
		claim, err := strategy.Claim(txCtx, capacity.ClaimRequest{
			Business:     business,
			Location:     loc,
			Start:        scheduledAt,
			TotalMinutes: totalMinutes,
		})
		if err != nil {
			if errors.Is(err, capacity.ErrUnavailable) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("%w: failed to claim capacity: %w", ErrInternal, err)
		}

		// 6.2. Собираем и валидируем бронирование; при ошибке вместимость не тронута
		booking := &domain.Booking{
			BusinessID:    business.ID,
			CustomerName:  req.Customer.Name,
			CustomerPhone: req.Customer.Phone,
			CustomerEmail: req.Customer.Email,
			Notes:         req.Customer.Notes,
			ScheduledAt:   scheduledAt,
			Status:        domain.StatusPending,
			Source:        domain.SourceOnline,
			Services:      services,
		}
		if err := validateBooking(booking, business, loc, uc.opts.Rules, checkBreaks, now); err != nil {
			return err
		}

		// 6.3. Сохраняем бронирование и услуги
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}
		if err := uc.bookingRepo.AttachServices(txCtx, created.ID, ids); err != nil {
			return fmt.Errorf("%w: failed to attach services: %w", ErrInternal, err)
		}

		// 6.4. Привязываем слоты и списываем вместимость
		if err := claim.Apply(txCtx, created.ID); err != nil {
			return fmt.Errorf("%w: failed to apply claim: %w", ErrInternal, err)
		}

		created.Services = services
		result = created
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, txmanager.ErrRetryable):
			uc.logger.Warn("CreateBooking: business=%d at %s: lock wait exceeded: %v",
				business.ID, scheduledAt.Format(time.RFC3339), err)
			return nil, ErrTryAgain
		case errors.Is(err, ErrSlotUnavailable):
			uc.metrics.IncReservationConflict(string(strategy.Mode()))
			uc.logger.Warn("CreateBooking: business=%d at %s: slot no longer available",
				business.ID, scheduledAt.Format(time.RFC3339))
			return nil, ErrSlotUnavailable
		case errors.Is(err, ErrValidation):
			uc.logger.Warn("CreateBooking: business=%d: %v", business.ID, err)
			return nil, err
		default:
			uc.logger.Error("CreateBooking: business=%d: %v", business.ID, err)
			if errors.Is(err, ErrInternal) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	uc.metrics.IncBookingCreated(string(domain.SourceOnline))
	uc.logger.Info("CreateBooking: successfully created booking id=%d, business=%d, mode=%s",
		result.ID, business.ID, strategy.Mode())

	return toResponse(result, business, loc), nil
}

func toResponse(b *domain.Booking, business *domain.Business, loc *time.Location) *Response {
	services := make([]Service, 0, len(b.Services))
	for _, s := range b.Services {
		services = append(services, Service{
			ID:              s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}

	local := b.ScheduledAt.In(loc)
	return &Response{
		ID:              b.ID,
		BusinessID:      business.ID,
		BusinessName:    business.Name,
		Status:          string(b.Status),
		Source:          string(b.Source),
		ScheduledAt:     b.ScheduledAt,
		Date:            domain.CivilDate(local, loc),
		StartTime:       types.NewTimeString(local),
		EndTime:         types.NewTimeString(b.EndTime().In(loc)),
		TotalMinutes:    b.TotalDuration(),
		TotalPriceCents: b.TotalPriceCents(),
		Currency:        business.Currency,
		Services:        services,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		CustomerEmail:   b.CustomerEmail,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
	}
}
