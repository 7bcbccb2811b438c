package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// Request модель запроса на создание онлайн-бронирования
type Request struct {
	Slug       string           // Публичный идентификатор бизнеса
	ServiceIDs []int64          // Выбранные услуги
	Date       time.Time        // Дата бронирования (без времени)
	StartTime  types.TimeString // Время начала в часовом поясе бизнеса (например, "10:00")
	Customer   Customer
}

// Customer контактные данные клиента
type Customer struct {
	Name  string
	Phone string
	Email *string // опционально
	Notes *string // опционально
}

// Options настройки бронирования
type Options struct {
	Rules         domain.BookingRules
	EnforceBreaks bool // Запрещать бронирование, пересекающее перерыв
}

// Response модель ответа с созданным бронированием (данные для страницы подтверждения)
type Response struct {
	ID              int64
	BusinessID      int64
	BusinessName    string
	Status          string
	Source          string
	ScheduledAt     time.Time
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	TotalMinutes    int
	TotalPriceCents int64
	Currency        string
	Services        []Service

	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	Notes         *string

	CreatedAt time.Time
}

// Service услуга в составе бронирования
type Service struct {
	ID              int64
	Name            string
	DurationMinutes int
	PriceCents      int64
}
