package models

import (
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// Request модели

// ListBookingsRequest запрос на получение бронирований бизнеса за день
type ListBookingsRequest struct {
	UserID     int64     `json:"-"`
	BusinessID int64     `json:"businessId"`
	Date       time.Time `json:"date"`             // День в часовом поясе бизнеса
	Status     *string   `json:"status,omitempty"` // Фильтр по статусу (опционально)
	Source     *string   `json:"source,omitempty"` // Фильтр по источнику (опционально)
}

// UpdateStatusRequest запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	UserID int64  `json:"-"`
	Status string `json:"status"`
}

// Response модели

// ServiceItem услуга в составе бронирования
type ServiceItem struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID            int64   `json:"id"`
	BusinessID    int64   `json:"businessId"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	CustomerEmail *string `json:"customerEmail,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	ScheduledAt time.Time        `json:"scheduledAt"`
	Date        string           `json:"date"`      // "2025-10-15" в часовом поясе бизнеса
	StartTime   types.TimeString `json:"startTime"` // "10:00"
	EndTime     types.TimeString `json:"endTime"`   // "10:45"

	Status          string        `json:"status"`
	Source          string        `json:"source"`
	TotalMinutes    int           `json:"totalMinutes"`
	TotalPriceCents int64         `json:"totalPriceCents"`
	Services        []ServiceItem `json:"services"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Date     string            `json:"date"`
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO; время - в часовом поясе бизнеса
func FromDomainBooking(b *domain.Booking, loc *time.Location) *BookingResponse {
	if b == nil {
		return nil
	}

	services := make([]ServiceItem, 0, len(b.Services))
	for _, s := range b.Services {
		services = append(services, ServiceItem{
			ID:              s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}

	local := b.ScheduledAt.In(loc)
	return &BookingResponse{
		ID:              b.ID,
		BusinessID:      b.BusinessID,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		CustomerEmail:   b.CustomerEmail,
		Notes:           b.Notes,
		ScheduledAt:     b.ScheduledAt,
		Date:            local.Format(domain.DateFormat),
		StartTime:       types.NewTimeString(local),
		EndTime:         types.NewTimeString(b.EndTime().In(loc)),
		Status:          string(b.Status),
		Source:          string(b.Source),
		TotalMinutes:    b.TotalDuration(),
		TotalPriceCents: b.TotalPriceCents(),
		Services:        services,
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(date time.Time, bookings []*domain.Booking, loc *time.Location) *BookingListResponse {
	resp := &BookingListResponse{
		Date:     date.Format(domain.DateFormat),
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking, loc); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
