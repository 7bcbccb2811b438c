package create_walk_in

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SlotBooking/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopMetrics struct{}

func (nopMetrics) IncBookingCreated(string) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

const ownerID int64 = 100

var now = time.Date(2025, 3, 14, 9, 7, 0, 0, time.UTC)

func setup(t *testing.T, capacityCheck bool) (*UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddBusiness(domain.Business{ID: 7, OwnerID: ownerID, Slug: "pho-salon", Capacity: 2, Timezone: "UTC"})
	store.AddService(domain.Service{ID: 1, BusinessID: 7, Name: "Haircut", DurationMinutes: 30, Active: true})
	store.AddService(domain.Service{ID: 9, BusinessID: 8, Name: "Foreign", DurationMinutes: 30, Active: true})
	store.AddService(domain.Service{ID: 2, BusinessID: 7, Name: "Retired", DurationMinutes: 15, Active: false})

	uc := NewUseCase(store.Businesses(), store.Services(), store.Bookings(), store, nopMetrics{},
		Options{Rules: domain.DefaultBookingRules(), CapacityCheck: capacityCheck}, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc, store
}

func walkIn() *Request {
	return &Request{UserID: ownerID, BusinessID: 7, ServiceIDs: []int64{1}, Name: "Le Thi C", Phone: "0911222333"}
}

func TestUseCase_Execute(t *testing.T) {
	uc, store := setup(t, false)

	resp, err := uc.Execute(context.Background(), walkIn())
	require.NoError(t, err)

	b := resp.Booking
	assert.Equal(t, domain.StatusInProgress, b.Status)
	assert.Equal(t, domain.SourceWalkIn, b.Source)
	assert.Equal(t, now, b.ScheduledAt)
	require.NotNil(t, b.StartedAt)
	assert.Equal(t, now, *b.StartedAt)

	stored, err := store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SlotIDs)
	assert.Len(t, stored.Services, 1)
}

func TestUseCase_Execute_PastScheduleAllowed(t *testing.T) {
	uc, _ := setup(t, false)
	req := walkIn()
	req.ScheduledAt = ptr.Ptr(now.Add(-10 * time.Minute))

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-10*time.Minute), resp.Booking.ScheduledAt)
}

func TestUseCase_Execute_CapacityCheck(t *testing.T) {
	ctx := context.Background()

	unchecked, _ := setup(t, false)
	for i := 0; i < 3; i++ {
		_, err := unchecked.Execute(ctx, walkIn())
		require.NoError(t, err)
	}

	checked, _ := setup(t, true)
	for i := 0; i < 2; i++ {
		_, err := checked.Execute(ctx, walkIn())
		require.NoError(t, err)
	}
	_, err := checked.Execute(ctx, walkIn())
	assert.ErrorIs(t, err, ErrCapacityReached)

	later := walkIn()
	later.ScheduledAt = ptr.Ptr(now.Add(30 * time.Minute))
	_, err = checked.Execute(ctx, later)
	assert.NoError(t, err, "walk-in after the active ones end")
}

func TestUseCase_Execute_Errors(t *testing.T) {
	uc, _ := setup(t, false)
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(r *Request)
		want   error
	}{
		{name: "not owner", modify: func(r *Request) { r.UserID = 5 }, want: ErrAccessDenied},
		{name: "unknown business", modify: func(r *Request) { r.BusinessID = 404 }, want: ErrBusinessNotFound},
		{name: "no services", modify: func(r *Request) { r.ServiceIDs = nil }, want: ErrNoServices},
		{name: "foreign service", modify: func(r *Request) { r.ServiceIDs = []int64{1, 9} }, want: ErrServicesInvalid},
		{name: "inactive service", modify: func(r *Request) { r.ServiceIDs = []int64{1, 2} }, want: ErrServicesInvalid},
		{name: "missing name", modify: func(r *Request) { r.Name = " " }, want: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := walkIn()
			tt.modify(req)
			_, err := uc.Execute(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
