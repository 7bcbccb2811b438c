package check_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/capacity"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// BusinessRepository интерфейс репозитория бизнесов
type BusinessRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Business, error)
}

// ServiceRepository интерфейс репозитория услуг
type ServiceRepository interface {
	GetByIDs(ctx context.Context, businessID int64, ids []int64) ([]*domain.Service, error)
}

// StrategyResolver выбирает стратегию учета вместимости бизнеса
type StrategyResolver interface {
	For(business *domain.Business) (capacity.Strategy, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
