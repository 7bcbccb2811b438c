package generate_slots

import (
	"context"
	"errors"
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

type countingMetrics struct {
	generated int
	failures  int
}

func (m *countingMetrics) AddSlotsGenerated(n int)   { m.generated += n }
func (m *countingMetrics) IncSlotGenerationFailure() { m.failures++ }

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type failingSlots struct{}

func (failingSlots) InsertBatch(context.Context, []domain.Slot) (int, error) {
	return 0, errors.New("connection reset")
}

// 2025-03-14 is a Friday
var friday = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func testBusiness() domain.Business {
	return domain.Business{
		ID:       7,
		OwnerID:  100,
		Slug:     "pho-salon",
		Capacity: 3,
		Timezone: "UTC",
		OperatingHours: domain.OperatingHours{
			"friday": {
				Open:   "09:00",
				Close:  "12:00",
				Breaks: []domain.Break{{Start: "10:00", End: "10:30"}},
			},
			"saturday": {Closed: true},
		},
	}
}

func newUseCase(store *memory.Store, m *countingMetrics, now time.Time) *UseCase {
	uc := NewUseCase(store.Businesses(), store.Slots(), m, 3, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func TestBuildSlots(t *testing.T) {
	b := testBusiness()

	slots := BuildSlots(&b, friday, time.UTC)
	require.Len(t, slots, 12, "09:00-12:00 including the break")
	assert.Equal(t, friday.Add(9*time.Hour), slots[0].StartTime)
	assert.Equal(t, friday.Add(11*time.Hour+45*time.Minute), slots[11].StartTime)
	for i, s := range slots {
		assert.Equal(t, 3, s.Capacity)
		assert.Equal(t, 3, s.OriginalCapacity)
		if i > 0 {
			assert.True(t, slots[i-1].Chains(&slots[i]))
		}
	}

	assert.Empty(t, BuildSlots(&b, friday.AddDate(0, 0, 1), time.UTC), "closed saturday")
	assert.Empty(t, BuildSlots(&b, friday.AddDate(0, 0, 2), time.UTC), "sunday has no hours")
}

func TestBuildSlots_BusinessTimezone(t *testing.T) {
	b := testBusiness()
	ict := time.FixedZone("ICT", 7*60*60)

	slots := BuildSlots(&b, friday, ict)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC), slots[0].StartTime.UTC())
	assert.Equal(t, "2025-03-14", slots[0].Date.Format(domain.DateFormat))
}

func TestUseCase_Execute_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.AddBusiness(testBusiness())
	m := &countingMetrics{}
	uc := newUseCase(store, m, friday.Add(8*time.Hour))

	resp, err := uc.Execute(ctx, &Request{BusinessID: 7, Date: ptr.Ptr(friday)})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Created)

	resp, err = uc.Execute(ctx, &Request{BusinessID: 7, Date: ptr.Ptr(friday)})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Created)

	slots, err := store.Slots().ListByDate(ctx, 7, friday)
	require.NoError(t, err)
	assert.Len(t, slots, 12)
	assert.Equal(t, 12, m.generated)
}

func TestUseCase_Execute_Window(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.AddBusiness(testBusiness())
	uc := newUseCase(store, &countingMetrics{}, friday.Add(8*time.Hour))

	resp, err := uc.Execute(ctx, &Request{BusinessID: 7})
	require.NoError(t, err)

	require.Len(t, resp.Days, 3)
	assert.Equal(t, friday, resp.Days[0].Date)
	assert.Equal(t, 12, resp.Days[0].Created)
	assert.Equal(t, 0, resp.Days[1].Created)
	assert.Equal(t, 0, resp.Days[2].Created)
	assert.Equal(t, 12, resp.Created)
}

func TestUseCase_Tomorrow(t *testing.T) {
	store := memory.NewStore()
	uc := newUseCase(store, &countingMetrics{}, time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC))

	b := testBusiness()
	tomorrow, err := uc.Tomorrow(&b)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", tomorrow.Format(domain.DateFormat))

	b.Timezone = "Not/AZone"
	_, err = uc.Tomorrow(&b)
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestUseCase_Execute_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.AddBusiness(testBusiness())
	m := &countingMetrics{}

	uc := newUseCase(store, m, friday)
	_, err := uc.Execute(ctx, &Request{BusinessID: 404})
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	_, err = uc.Execute(ctx, &Request{UserID: 5, BusinessID: 7, Date: ptr.Ptr(friday)})
	assert.ErrorIs(t, err, ErrAccessDenied)

	uc = NewUseCase(store.Businesses(), failingSlots{}, m, 1, nopLogger{})
	_, err = uc.Execute(ctx, &Request{BusinessID: 7, Date: ptr.Ptr(friday)})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, 1, m.failures)
}
