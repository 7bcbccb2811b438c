package check_availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	checkAvailability "github.com/m04kA/SMC-SlotBooking/internal/usecase/check_availability"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date           string             `json:"date"`
	BusinessID     int64              `json:"businessId"`
	TotalMinutes   int                `json:"totalMinutes"`
	AvailableSlots []types.TimeString `json:"availableSlots"`
}

// ParseServiceIDs разбирает "1,2,3"; пустая строка - пустой список
func ParseServiceIDs(raw string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid service id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ToUseCaseRequest конвертирует query параметры в модель use case
func ToUseCaseRequest(slug, serviceIDs, date string) (*checkAvailability.Request, error) {
	ids, err := ParseServiceIDs(serviceIDs)
	if err != nil {
		return nil, err
	}
	day, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return nil, err
	}
	return &checkAvailability.Request{Slug: slug, ServiceIDs: ids, Date: day}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *checkAvailability.Response) *AvailabilityResponse {
	return &AvailabilityResponse{
		Date:           resp.Date.Format(domain.DateFormat),
		BusinessID:     resp.BusinessID,
		TotalMinutes:   resp.TotalMinutes,
		AvailableSlots: resp.AvailableSlots,
	}
}
