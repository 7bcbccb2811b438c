package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	createBooking "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceIDs  []int64         `json:"serviceIds"`
	BookingDate string          `json:"bookingDate"` // "2025-10-15"
	StartTime   string          `json:"startTime"`   // "10:00"
	Customer    CustomerRequest `json:"customer"`
}

// CustomerRequest контактные данные клиента
type CustomerRequest struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ServiceResponse услуга в составе бронирования
type ServiceResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
}

// BookingResponse HTTP response model (страница подтверждения)
type BookingResponse struct {
	ID              int64             `json:"id"`
	BusinessID      int64             `json:"businessId"`
	BusinessName    string            `json:"businessName"`
	Status          string            `json:"status"`
	Source          string            `json:"source"`
	ScheduledAt     string            `json:"scheduledAt"`
	BookingDate     string            `json:"bookingDate"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	TotalMinutes    int               `json:"totalMinutes"`
	TotalPriceCents int64             `json:"totalPriceCents"`
	Currency        string            `json:"currency"`
	Services        []ServiceResponse `json:"services"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerEmail   *string           `json:"customerEmail,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       string            `json:"createdAt"`
}

// errInvalidTime отличает ошибку времени от ошибки даты
type errInvalidTime struct{ err error }

func (e errInvalidTime) Error() string { return e.err.Error() }
func (e errInvalidTime) Unwrap() error { return e.err }

// ToUseCaseRequest конвертирует HTTP запрос в модель use case (с парсингом даты и времени)
func (r *CreateBookingRequest) ToUseCaseRequest(slug string) (*createBooking.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, errInvalidTime{err: err}
	}

	return &createBooking.Request{
		Slug:       slug,
		ServiceIDs: r.ServiceIDs,
		Date:       bookingDate,
		StartTime:  startTime,
		Customer: createBooking.Customer{
			Name:  r.Customer.Name,
			Phone: r.Customer.Phone,
			Email: r.Customer.Email,
			Notes: r.Customer.Notes,
		},
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	services := make([]ServiceResponse, 0, len(resp.Services))
	for _, s := range resp.Services {
		services = append(services, ServiceResponse{
			ID:              s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}

	return &BookingResponse{
		ID:              resp.ID,
		BusinessID:      resp.BusinessID,
		BusinessName:    resp.BusinessName,
		Status:          resp.Status,
		Source:          resp.Source,
		ScheduledAt:     resp.ScheduledAt.Format(time.RFC3339),
		BookingDate:     resp.Date.Format(domain.DateFormat),
		StartTime:       resp.StartTime.String(),
		EndTime:         resp.EndTime.String(),
		TotalMinutes:    resp.TotalMinutes,
		TotalPriceCents: resp.TotalPriceCents,
		Currency:        resp.Currency,
		Services:        services,
		CustomerName:    resp.CustomerName,
		CustomerPhone:   resp.CustomerPhone,
		CustomerEmail:   resp.CustomerEmail,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
	}
}
