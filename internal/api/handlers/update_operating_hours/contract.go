package update_operating_hours

import (
	"context"

	"github.com/m04kA/SMC-SlotBooking/internal/service/businesses/models"
)

type BusinessService interface {
	UpdateOperatingHours(ctx context.Context, businessID int64, req *models.UpdateOperatingHoursRequest) (*models.OperatingHoursResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
