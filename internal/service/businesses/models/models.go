package models

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// UpdateOperatingHoursRequest запрос на замену рабочих часов
type UpdateOperatingHoursRequest struct {
	UserID         int64                 `json:"-"`
	OperatingHours domain.OperatingHours `json:"operatingHours"`
}

// OperatingHoursResponse сохраненные рабочие часы
type OperatingHoursResponse struct {
	BusinessID     int64                 `json:"businessId"`
	OperatingHours domain.OperatingHours `json:"operatingHours"`
}

// CapacityUsageResponse текущая загрузка бизнеса
type CapacityUsageResponse struct {
	BusinessID int64     `json:"businessId"`
	Current    int       `json:"current"`    // Активные бронирования прямо сейчас
	Capacity   int       `json:"capacity"`   // Вместимость бизнеса
	Percentage int       `json:"percentage"` // current*100/capacity, округлено
	At         time.Time `json:"at"`
}
