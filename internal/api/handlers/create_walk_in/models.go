package create_walk_in

import (
	"time"

	createWalkIn "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_walk_in"
)

// CreateWalkInRequest HTTP request model
type CreateWalkInRequest struct {
	ServiceIDs  []int64    `json:"serviceIds"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"` // RFC3339; по умолчанию - сейчас
	Customer    struct {
		Name  string  `json:"name"`
		Phone string  `json:"phone"`
		Email *string `json:"email,omitempty"`
		Notes *string `json:"notes,omitempty"`
	} `json:"customer"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateWalkInRequest) ToUseCaseRequest(businessID, userID int64) *createWalkIn.Request {
	return &createWalkIn.Request{
		UserID:      userID,
		BusinessID:  businessID,
		ServiceIDs:  r.ServiceIDs,
		ScheduledAt: r.ScheduledAt,
		Name:        r.Customer.Name,
		Phone:       r.Customer.Phone,
		Email:       r.Customer.Email,
		Notes:       r.Customer.Notes,
	}
}
