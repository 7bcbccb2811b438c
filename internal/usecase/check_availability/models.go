package check_availability

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// Request модель запроса доступности
type Request struct {
	Slug       string    // Публичный идентификатор бизнеса
	ServiceIDs []int64   // Выбранные услуги
	Date       time.Time // Дата (без времени)
}

// Response модель ответа со списком времен начала
type Response struct {
	Date           time.Time
	BusinessID     int64
	TotalMinutes   int                // Суммарная длительность услуг
	AvailableSlots []types.TimeString // Время начала в часовом поясе бизнеса, по возрастанию
}
