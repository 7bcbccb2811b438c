package list_bookings

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Пустая дата - сегодня в часовом поясе бизнеса
func ToServiceRequest(businessID, userID int64, dateStr, statusStr, sourceStr string) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{
		UserID:     userID,
		BusinessID: businessID,
	}

	if dateStr != "" {
		date, err := time.Parse(domain.DateFormat, dateStr)
		if err != nil {
			return nil, err
		}
		req.Date = date
	}
	if statusStr != "" {
		req.Status = &statusStr
	}
	if sourceStr != "" {
		req.Source = &sourceStr
	}

	return req, nil
}
