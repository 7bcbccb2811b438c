package generate_slots

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	generateSlots "github.com/m04kA/SMC-SlotBooking/internal/usecase/generate_slots"
)

// GenerateSlotsRequest HTTP request model; пустое тело - скользящее окно
type GenerateSlotsRequest struct {
	Date *string `json:"date,omitempty"` // "2025-10-15"
}

// DayResponse результат за один день
type DayResponse struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
}

// GenerateSlotsResponse HTTP response model
type GenerateSlotsResponse struct {
	BusinessID int64         `json:"businessId"`
	Created    int           `json:"created"`
	Days       []DayResponse `json:"days"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *GenerateSlotsRequest) ToUseCaseRequest(businessID, userID int64) (*generateSlots.Request, error) {
	req := &generateSlots.Request{UserID: userID, BusinessID: businessID}
	if r.Date != nil {
		date, err := time.Parse(domain.DateFormat, *r.Date)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *generateSlots.Response) *GenerateSlotsResponse {
	days := make([]DayResponse, 0, len(resp.Days))
	for _, d := range resp.Days {
		days = append(days, DayResponse{Date: d.Date.Format(domain.DateFormat), Created: d.Created})
	}
	return &GenerateSlotsResponse{BusinessID: resp.BusinessID, Created: resp.Created, Days: days}
}
