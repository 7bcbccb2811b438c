package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/booking"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
)

// Service сервис для работы с бронированиями в панели бизнеса
type Service struct {
	bookingRepo  BookingRepository
	businessRepo BusinessRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	businessRepo BusinessRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		businessRepo: businessRepo,
		txManager:    txManager,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// ListForDay получает бронирования бизнеса за день, упорядоченные по времени начала
// Опционально фильтрует по статусу и источнику
func (s *Service) ListForDay(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListForDay: business=%d, user=%d, date=%s", req.BusinessID, req.UserID, req.Date.Format(domain.DateFormat))

	business, err := s.checkOwnerAccess(ctx, req.BusinessID, req.UserID)
	if err != nil {
		return nil, err
	}
	loc, err := business.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: ListForDay - invalid timezone: %v", ErrInternal, err)
	}

	// Границы дня в часовом поясе бизнеса; без даты - сегодня
	day := req.Date
	if day.IsZero() {
		day = s.timeProvider.Now().In(loc)
	}
	from := domain.CivilDate(day, loc)
	to := from.AddDate(0, 0, 1)
	filter := domain.BookingsFilter{BusinessID: business.ID, From: &from, To: &to}

	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListForDay: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}
	if req.Source != nil {
		source, err := domain.ParseBookingSource(*req.Source)
		if err != nil {
			s.logger.Warn("ListForDay: invalid source=%s", *req.Source)
			return nil, fmt.Errorf("%w: invalid source", ErrInvalidInput)
		}
		filter.Source = &source
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListForDay: repository error for business=%d: %v", business.ID, err)
		return nil, fmt.Errorf("%w: ListForDay - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListForDay: successfully fetched %d bookings for business=%d", len(bookings), business.ID)
	return models.FromDomainBookingList(from, bookings, loc), nil
}

// GetForBusiness получает бронирование бизнеса; доступно только владельцу
func (s *Service) GetForBusiness(ctx context.Context, businessID, bookingID, userID int64) (*models.BookingResponse, error) {
	business, err := s.checkOwnerAccess(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	return s.getScoped(ctx, business, bookingID)
}

// GetPublic страница подтверждения: бронирование по ID в рамках публичного slug бизнеса
func (s *Service) GetPublic(ctx context.Context, slug string, bookingID int64) (*models.BookingResponse, error) {
	business, err := s.businessRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, businessRepo.ErrBusinessNotFound) {
			s.logger.Warn("GetPublic: business slug=%s not found", slug)
			return nil, ErrBusinessNotFound
		}
		s.logger.Error("GetPublic: failed to get business slug=%s: %v", slug, err)
		return nil, fmt.Errorf("%w: GetPublic - failed to get business: %v", ErrInternal, err)
	}
	return s.getScoped(ctx, business, bookingID)
}

func (s *Service) getScoped(ctx context.Context, business *domain.Business, bookingID int64) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	// Чужие бронирования не раскрываем
	if booking.BusinessID != business.ID {
		s.logger.Warn("GetByID: booking id=%d does not belong to business=%d", bookingID, business.ID)
		return nil, ErrBookingNotFound
	}

	loc, err := business.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - invalid timezone: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking, loc), nil
}

// UpdateStatus меняет статус бронирования по таблице переходов
// Вход в in_progress фиксирует started_at, в completed - completed_at; вместимость слотов не возвращается
func (s *Service) UpdateStatus(ctx context.Context, businessID, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: updating booking id=%d to status=%s by user=%d", bookingID, req.Status, req.UserID)

	business, err := s.checkOwnerAccess(ctx, businessID, req.UserID)
	if err != nil {
		return nil, err
	}

	next, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%d", req.Status, bookingID)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	var updated *domain.Booking
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Строка бронирования блокируется до конца транзакции
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - repository error: %w", ErrInternal, err)
		}
		if booking.BusinessID != business.ID {
			return ErrBookingNotFound
		}

		if err := booking.Transition(next, s.timeProvider.Now()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, booking); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - repository error: %w", ErrInternal, err)
		}

		updated = booking
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, txmanager.ErrRetryable):
			s.logger.Warn("UpdateStatus: booking id=%d: lock wait exceeded: %v", bookingID, err)
			return nil, ErrTryAgain
		case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrInvalidTransition):
			s.logger.Warn("UpdateStatus: booking id=%d: %v", bookingID, err)
			return nil, err
		default:
			s.logger.Error("UpdateStatus: booking id=%d: %v", bookingID, err)
			return nil, err
		}
	}

	loc, err := business.Location()
	if err != nil {
		loc = time.UTC
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%d to status=%s", bookingID, next)
	return models.FromDomainBooking(updated, loc), nil
}

// Вспомогательные методы

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
