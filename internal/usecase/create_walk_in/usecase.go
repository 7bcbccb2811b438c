package create_walk_in

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
)

// UseCase use case для создания бронирования клиента без записи
// Слоты не блокируются и не списываются
type UseCase struct {
	businessRepo BusinessRepository
	serviceRepo  ServiceRepository
	bookingRepo  BookingRepository
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
	txManager TransactionManager,
	metrics Metrics,
	opts Options,
	logger Logger,
) *UseCase {
	return &UseCase{
		businessRepo: businessRepo,
		serviceRepo:  serviceRepo,
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		metrics:      metrics,
		opts:         opts,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute создает бронирование со статусом in_progress и источником walk_in
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateWalkIn: business=%d, user=%d, services=%v", req.BusinessID, req.UserID, req.ServiceIDs)

	// 1. Получаем бизнес и проверяем владельца
	business, err := uc.businessRepo.GetByID(ctx, req.BusinessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			uc.logger.Warn("CreateWalkIn: business id=%d not found", req.BusinessID)
			return nil, ErrBusinessNotFound
		}
		uc.logger.Error("CreateWalkIn: failed to get business id=%d: %v", req.BusinessID, err)
		return nil, fmt.Errorf("%w: failed to get business: %v", ErrInternal, err)
	}
	if business.OwnerID != req.UserID {
		uc.logger.Warn("CreateWalkIn: user=%d is not the owner of business=%d", req.UserID, business.ID)
		return nil, ErrAccessDenied
	}

	// 2. Проверяем услуги
	ids := uniqueIDs(req.ServiceIDs)
	if len(ids) == 0 {
		return nil, ErrNoServices
	}
	services, err := uc.serviceRepo.GetByIDs(ctx, business.ID, ids)
	if err != nil {
		uc.logger.Error("CreateWalkIn: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}
	if len(services) != len(ids) {
		uc.logger.Warn("CreateWalkIn: business=%d: found %d of %d services", business.ID, len(services), len(ids))
		return nil, ErrServicesInvalid
	}
	for _, svc := range services {
		if !svc.Active {
			uc.logger.Warn("CreateWalkIn: business=%d: service=%d is inactive", business.ID, svc.ID)
			return nil, ErrServicesInvalid
		}
	}

	loc, err := business.Location()
	if err != nil {
		uc.logger.Error("CreateWalkIn: business=%d timezone %q: %v", business.ID, business.Timezone, err)
		return nil, fmt.Errorf("%w: invalid timezone: %v", ErrInternal, err)
	}

	// 3. Собираем бронирование: клиент уже на месте
	now := uc.timeProvider.Now()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}
	booking := &domain.Booking{
		BusinessID:    business.ID,
		CustomerName:  req.Name,
		CustomerPhone: req.Phone,
		CustomerEmail: req.Email,
		Notes:         req.Notes,
		ScheduledAt:   scheduledAt,
		Status:        domain.StatusInProgress,
		Source:        domain.SourceWalkIn,
		StartedAt:     &now,
		Services:      services,
	}
	if err := booking.Validate(uc.opts.Rules, now); err != nil {
		uc.logger.Warn("CreateWalkIn: business=%d: %v", business.ID, err)
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var result *domain.Booking

	// 4. Сохраняем; при включенной проверке - считаем пересечения под блокировкой бизнеса
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if uc.opts.CapacityCheck {
			if err := uc.businessRepo.LockByID(txCtx, business.ID); err != nil {
				return fmt.Errorf("%w: failed to lock business: %w", ErrInternal, err)
			}
			rng := booking.Range()
			count, err := uc.bookingRepo.CountOverlappingActive(txCtx, business.ID, rng.Start, rng.End)
			if err != nil {
				return fmt.Errorf("%w: failed to count overlapping bookings: %w", ErrInternal, err)
			}
			if count >= business.Capacity {
				uc.logger.Warn("CreateWalkIn: business=%d at capacity, %d/%d", business.ID, count, business.Capacity)
				return ErrCapacityReached
			}
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}
		if err := uc.bookingRepo.AttachServices(txCtx, created.ID, ids); err != nil {
			return fmt.Errorf("%w: failed to attach services: %w", ErrInternal, err)
		}

		created.Services = services
		result = created
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, txmanager.ErrRetryable):
			uc.logger.Warn("CreateWalkIn: business=%d: lock wait exceeded: %v", business.ID, err)
			return nil, ErrTryAgain
		case errors.Is(err, ErrCapacityReached):
			return nil, err
		default:
			uc.logger.Error("CreateWalkIn: business=%d: %v", business.ID, err)
			if errors.Is(err, ErrInternal) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	uc.metrics.IncBookingCreated(string(domain.SourceWalkIn))
	uc.logger.Info("CreateWalkIn: successfully created booking id=%d, business=%d", result.ID, business.ID)

	return &Response{Booking: result, Location: loc}, nil
}

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
