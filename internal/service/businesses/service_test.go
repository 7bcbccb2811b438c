package businesses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SlotBooking/internal/service/businesses/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

const ownerID int64 = 100

var now = time.Date(2025, 3, 14, 9, 10, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddBusiness(domain.Business{
		ID: 7, OwnerID: ownerID, Slug: "pho-salon", Capacity: 3, Timezone: "UTC",
		OperatingHours: domain.DefaultOperatingHours(),
	})
	store.AddService(domain.Service{ID: 1, BusinessID: 7, Name: "Haircut", DurationMinutes: 30, Active: true})

	svc := NewService(store.Businesses(), store.Bookings(), nopLogger{})
	svc.timeProvider = fixedTime{t: now}
	return svc, store
}

func addBooking(t *testing.T, store *memory.Store, at time.Time, status domain.BookingStatus) {
	t.Helper()
	ctx := context.Background()
	b, err := store.Bookings().Create(ctx, &domain.Booking{BusinessID: 7, ScheduledAt: at, Status: status})
	require.NoError(t, err)
	require.NoError(t, store.Bookings().AttachServices(ctx, b.ID, []int64{1}))
}

func TestService_UpdateOperatingHours(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	hours := domain.OperatingHours{
		"monday": {Open: "08:00", Close: "12:00"},
		"sunday": {Closed: true},
	}
	resp, err := svc.UpdateOperatingHours(ctx, 7, &models.UpdateOperatingHoursRequest{UserID: ownerID, OperatingHours: hours})
	require.NoError(t, err)
	assert.Equal(t, hours, resp.OperatingHours)

	b, err := store.Businesses().GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, hours, b.OperatingHours)
}

func TestService_UpdateOperatingHours_Invalid(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	bad := domain.OperatingHours{"monday": {Open: "12:00", Close: "08:00"}}
	_, err := svc.UpdateOperatingHours(ctx, 7, &models.UpdateOperatingHoursRequest{UserID: ownerID, OperatingHours: bad})
	require.ErrorIs(t, err, ErrValidation)

	var fields domain.ValidationErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "operating_hours.monday", fields[0].Field)

	b, err := store.Businesses().GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultOperatingHours(), b.OperatingHours, "unchanged")

	_, err = svc.UpdateOperatingHours(ctx, 7, &models.UpdateOperatingHoursRequest{UserID: 1, OperatingHours: bad})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestService_CapacityUsage(t *testing.T) {
	svc, store := setup(t)

	addBooking(t, store, now.Add(-20*time.Minute), domain.StatusInProgress) // 08:50-09:20
	addBooking(t, store, now.Add(-5*time.Minute), domain.StatusConfirmed)   // 09:05-09:35
	addBooking(t, store, now.Add(-40*time.Minute), domain.StatusInProgress) // ended 09:00
	addBooking(t, store, now, domain.StatusPending)                         // not active

	resp, err := svc.CapacityUsage(context.Background(), 7, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Current)
	assert.Equal(t, 3, resp.Capacity)
	assert.Equal(t, 67, resp.Percentage)
}

func TestUsagePercentage(t *testing.T) {
	assert.Equal(t, 0, usagePercentage(0, 2))
	assert.Equal(t, 50, usagePercentage(1, 2))
	assert.Equal(t, 33, usagePercentage(1, 3))
	assert.Equal(t, 100, usagePercentage(2, 2))
	assert.Equal(t, 0, usagePercentage(1, 0))
}
