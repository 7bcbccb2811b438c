package scheduler

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/lock"
)

// BusinessLister источник всех бизнесов для пакетной генерации
type BusinessLister interface {
	List(ctx context.Context) ([]*domain.Business, error)
}

// Generator генерация слотов одного бизнеса
type Generator interface {
	GenerateForDate(ctx context.Context, business *domain.Business, date time.Time) (int, error)
	Tomorrow(business *domain.Business) (time.Time, error)
	WindowDates(business *domain.Business) ([]time.Time, error)
}

// Locker межпроцессная блокировка пакета
type Locker = lock.Locker

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
