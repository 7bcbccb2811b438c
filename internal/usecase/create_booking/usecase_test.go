package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/capacity"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SlotBooking/pkg/ptr"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
	"github.com/m04kA/SMC-SlotBooking/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type countingMetrics struct {
	mu        sync.Mutex
	created   int
	conflicts int
}

func (m *countingMetrics) IncBookingCreated(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *countingMetrics) IncReservationConflict(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

// 2025-03-14 is a Friday
var friday = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	uc      *UseCase
	store   *memory.Store
	metrics *countingMetrics
}

func setup(t *testing.T, mode domain.CapacityMode, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddBusiness(domain.Business{
		ID:           7,
		Slug:         "pho-salon",
		Name:         "Pho Salon",
		Capacity:     2,
		Timezone:     "UTC",
		CapacityMode: mode,
		Currency:     "VND",
		OperatingHours: domain.OperatingHours{
			"friday": {
				Open:   "09:00",
				Close:  "10:00",
				Breaks: []domain.Break{{Start: "09:45", End: "10:00"}},
			},
		},
	})
	store.AddService(domain.Service{ID: 1, BusinessID: 7, Name: "Haircut", DurationMinutes: 30, PriceCents: 150000, Active: true})
	store.AddService(domain.Service{ID: 2, BusinessID: 7, Name: "Wash", DurationMinutes: 15, PriceCents: 50000, Active: true})
	store.AddService(domain.Service{ID: 9, BusinessID: 8, Name: "Foreign", DurationMinutes: 15, Active: true})

	var slots []domain.Slot
	for start := friday.Add(9 * time.Hour); start.Before(friday.Add(10 * time.Hour)); start = start.Add(domain.SlotGranularity) {
		slots = append(slots, domain.Slot{
			BusinessID: 7, StartTime: start, EndTime: start.Add(domain.SlotGranularity),
			Date: friday, Capacity: 2, OriginalCapacity: 2,
		})
	}
	_, err := store.Slots().InsertBatch(context.Background(), slots)
	require.NoError(t, err)

	if opts.Rules.Phone == nil {
		opts.Rules = domain.DefaultBookingRules()
	}
	resolver := capacity.NewResolver(domain.CapacityModeSlots,
		capacity.NewSlotStrategy(store.Slots(), store.Bookings(), opts.EnforceBreaks),
		capacity.NewRangeStrategy(store.Bookings(), store.Businesses()),
	)
	m := &countingMetrics{}
	uc := NewUseCase(store.Businesses(), store.Services(), store.Bookings(), resolver, store, m, opts, nopLogger{})
	uc.timeProvider = fixedTime{t: friday.Add(8 * time.Hour)}

	return &fixture{uc: uc, store: store, metrics: m}
}

func validRequest(start types.TimeString, serviceIDs ...int64) *Request {
	return &Request{
		Slug:       "pho-salon",
		ServiceIDs: serviceIDs,
		Date:       friday,
		StartTime:  start,
		Customer: Customer{
			Name:  "Nguyen Van A",
			Phone: "0912345678",
			Email: ptr.Ptr("a@example.com"),
		},
	}
}

func (f *fixture) capacities(t *testing.T) map[string]int {
	t.Helper()
	slots, err := f.store.Slots().ListByDate(context.Background(), 7, friday)
	require.NoError(t, err)
	out := make(map[string]int, len(slots))
	for _, s := range slots {
		out[s.StartTime.Format(domain.TimeFormat)] = s.Capacity
	}
	return out
}

func (f *fixture) bookings(t *testing.T) []*domain.Booking {
	t.Helper()
	list, err := f.store.Bookings().List(context.Background(), domain.BookingsFilter{BusinessID: 7})
	require.NoError(t, err)
	return list
}

func TestUseCase_Execute_Success(t *testing.T) {
	f := setup(t, "", Options{})

	resp, err := f.uc.Execute(context.Background(), validRequest("09:00", 1, 2))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "online", resp.Source)
	assert.Equal(t, types.TimeString("09:00"), resp.StartTime)
	assert.Equal(t, types.TimeString("09:45"), resp.EndTime)
	assert.Equal(t, 45, resp.TotalMinutes)
	assert.Equal(t, int64(200000), resp.TotalPriceCents)
	assert.Len(t, resp.Services, 2)

	assert.Equal(t, map[string]int{"09:00": 1, "09:15": 1, "09:30": 1, "09:45": 2}, f.capacities(t))

	stored, err := f.store.Bookings().GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Len(t, stored.SlotIDs, 3)
	assert.Len(t, stored.Services, 2)
	assert.Equal(t, 1, f.metrics.created)
}

// Capacity 2, ten concurrent customers for the same start: exactly two bookings exist afterwards
func TestUseCase_Execute_ConcurrentReservations(t *testing.T) {
	f := setup(t, "", Options{})

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest("09:00", 1)
			req.Customer.Phone = fmt.Sprintf("09000000%02d", i)
			_, errs[i] = f.uc.Execute(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded, unavailable := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotUnavailable):
			unavailable++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, attempts-2, unavailable)
	assert.Len(t, f.bookings(t), 2)
	assert.Equal(t, 0, f.capacities(t)["09:00"])
	assert.Equal(t, 0, f.capacities(t)["09:15"])
	assert.Equal(t, attempts-2, f.metrics.conflicts)
}

func TestUseCase_Execute_ValidationRollsBack(t *testing.T) {
	f := setup(t, "", Options{})
	before := f.capacities(t)

	req := validRequest("09:00", 1)
	req.Customer.Phone = "12345"
	req.Customer.Email = ptr.Ptr("not-an-email")

	_, err := f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrValidation)

	var fields domain.ValidationErrors
	require.True(t, errors.As(err, &fields))
	names := make([]string, 0, len(fields))
	for _, fe := range fields {
		names = append(names, fe.Field)
	}
	assert.ElementsMatch(t, []string{"customer_phone", "customer_email"}, names)

	assert.Equal(t, before, f.capacities(t))
	assert.Empty(t, f.bookings(t))
}

func TestUseCase_Execute_PastStart(t *testing.T) {
	f := setup(t, "", Options{})
	f.uc.timeProvider = fixedTime{t: friday.Add(9*time.Hour + 5*time.Minute)}

	_, err := f.uc.Execute(context.Background(), validRequest("09:00", 2))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "scheduled_at")
	assert.Equal(t, 2, f.capacities(t)["09:00"])
}

func TestUseCase_Execute_RejectedBeforeTransaction(t *testing.T) {
	f := setup(t, "", Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{name: "no services", req: validRequest("09:00"), want: ErrNoServices},
		{name: "foreign service", req: validRequest("09:00", 1, 9), want: ErrServicesInvalid},
		{name: "unknown business", req: func() *Request { r := validRequest("09:00", 1); r.Slug = "nope"; return r }(), want: ErrBusinessNotFound},
		{name: "bad time", req: validRequest("9am", 1), want: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUseCase_Execute_Unavailable(t *testing.T) {
	f := setup(t, "", Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		start types.TimeString
		ids   []int64
	}{
		{name: "run past close", start: "09:45", ids: []int64{1}},
		{name: "before open", start: "08:45", ids: []int64{2}},
		{name: "not slot aligned", start: "09:10", ids: []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(ctx, validRequest(tt.start, tt.ids...))
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		})
	}
}

func TestUseCase_Execute_Breaks(t *testing.T) {
	lenient := setup(t, "", Options{})
	_, err := lenient.uc.Execute(context.Background(), validRequest("09:45", 2))
	require.NoError(t, err, "break slots are bookable unless breaks are enforced")

	strict := setup(t, "", Options{EnforceBreaks: true})
	_, err = strict.uc.Execute(context.Background(), validRequest("09:45", 2))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, strict.capacities(t)["09:45"])
}

func TestUseCase_Execute_RangeMode(t *testing.T) {
	f := setup(t, domain.CapacityModeRange, Options{})
	ctx := context.Background()

	resp, err := f.uc.Execute(ctx, validRequest("09:00", 1))
	require.NoError(t, err)

	stored, err := f.store.Bookings().GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SlotIDs, "range mode does not touch the slot ledger")
	assert.Equal(t, 2, f.capacities(t)["09:00"])

	_, err = f.uc.Execute(ctx, validRequest("09:30", 1))
	assert.ErrorIs(t, err, ErrValidation, "09:30-10:00 overlaps the break")
}

type retryableTx struct{}

func (retryableTx) Do(context.Context, func(context.Context) error) error {
	return fmt.Errorf("%w: lock timeout", txmanager.ErrRetryable)
}

func TestUseCase_Execute_LockTimeout(t *testing.T) {
	f := setup(t, "", Options{})
	f.uc.txManager = retryableTx{}

	_, err := f.uc.Execute(context.Background(), validRequest("09:00", 1))
	assert.ErrorIs(t, err, ErrTryAgain)
}
