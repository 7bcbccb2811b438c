package get_capacity_usage

import (
	"context"

	"github.com/m04kA/SMC-SlotBooking/internal/service/businesses/models"
)

type BusinessService interface {
	CapacityUsage(ctx context.Context, businessID, userID int64) (*models.CapacityUsageResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
