package create_walk_in

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// Request модель запроса на создание бронирования без записи (клиент пришел сам)
type Request struct {
	UserID      int64      // Сотрудник (владелец бизнеса)
	BusinessID  int64      // ID бизнеса
	ServiceIDs  []int64    // Услуги
	ScheduledAt *time.Time // По умолчанию - текущее время
	Name        string
	Phone       string
	Email       *string
	Notes       *string
}

// Options настройки создания
type Options struct {
	Rules         domain.BookingRules
	CapacityCheck bool // Проверять пересечения с активными бронированиями под блокировкой бизнеса
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking  *domain.Booking
	Location *time.Location
}
