package businesses

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/internal/service/businesses/models"
)

// Service сервис настроек и загрузки бизнеса
type Service struct {
	businessRepo BusinessRepository
	bookingRepo  BookingRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса
func NewService(businessRepo BusinessRepository, bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		businessRepo: businessRepo,
		bookingRepo:  bookingRepo,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// UpdateOperatingHours валидирует и сохраняет рабочие часы
// Уже созданные слоты не меняются; повторная генерация идемпотентна
func (s *Service) UpdateOperatingHours(ctx context.Context, businessID int64, req *models.UpdateOperatingHoursRequest) (*models.OperatingHoursResponse, error) {
	s.logger.Info("UpdateOperatingHours: business=%d, user=%d", businessID, req.UserID)

	if _, err := s.checkOwnerAccess(ctx, businessID, req.UserID); err != nil {
		return nil, err
	}

	if err := req.OperatingHours.Validate(); err != nil {
		s.logger.Warn("UpdateOperatingHours: business=%d: %v", businessID, err)
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := s.businessRepo.UpdateOperatingHours(ctx, businessID, req.OperatingHours); err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			return nil, ErrBusinessNotFound
		}
		s.logger.Error("UpdateOperatingHours: repository error for business=%d: %v", businessID, err)
		return nil, fmt.Errorf("%w: UpdateOperatingHours - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateOperatingHours: successfully updated business=%d", businessID)
	return &models.OperatingHoursResponse{BusinessID: businessID, OperatingHours: req.OperatingHours}, nil
}

// CapacityUsage считает активные бронирования, пересекающиеся с [now, now+1min)
func (s *Service) CapacityUsage(ctx context.Context, businessID, userID int64) (*models.CapacityUsageResponse, error) {
	business, err := s.checkOwnerAccess(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	current, err := s.bookingRepo.CountOverlappingActive(ctx, business.ID, now, now.Add(domain.CapacityUsageWindowSpan))
	if err != nil {
		s.logger.Error("CapacityUsage: repository error for business=%d: %v", business.ID, err)
		return nil, fmt.Errorf("%w: CapacityUsage - repository error: %v", ErrInternal, err)
	}

	return &models.CapacityUsageResponse{
		BusinessID: business.ID,
		Current:    current,
		Capacity:   business.Capacity,
		Percentage: usagePercentage(current, business.Capacity),
		At:         now,
	}, nil
}

func usagePercentage(current, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(float64(current) * 100 / float64(capacity)))
}

// checkOwnerAccess проверяет, что пользователь - владелец бизнеса
func (s *Service) checkOwnerAccess(ctx context.Context, businessID, userID int64) (*domain.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			s.logger.Warn("checkOwnerAccess: business id=%d not found", businessID)
			return nil, ErrBusinessNotFound
		}
		s.logger.Error("checkOwnerAccess: failed to get business id=%d: %v", businessID, err)
		return nil, fmt.Errorf("%w: checkOwnerAccess - failed to get business: %v", ErrInternal, err)
	}

	if business.OwnerID != userID {
		s.logger.Warn("checkOwnerAccess: user=%d is not the owner of business=%d", userID, businessID)
		return nil, ErrAccessDenied
	}

	return business, nil
}
