package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/ptr"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	booking := &domain.Booking{
		BusinessID:    7,
		CustomerName:  "Tran Thi B",
		CustomerPhone: "0987654321",
		CustomerEmail: ptr.Ptr("b@example.com"),
		ScheduledAt:   now.Add(time.Hour),
		Status:        domain.StatusPending,
		Source:        domain.SourceOnline,
	}

	mock.ExpectQuery(`INSERT INTO bookings \(business_id,customer_name,customer_phone,customer_email,notes,scheduled_at,status,source,started_at,completed_at\) VALUES .* RETURNING id, created_at, updated_at`).
		WithArgs(int64(7), "Tran Thi B", "0987654321", sqlmock.AnyArg(), sqlmock.AnyArg(), booking.ScheduledAt, "pending", "online", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	created, err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AttachSlots(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO booking_slots \(booking_id,slot_id\) VALUES \(\$1,\$2\),\(\$3,\$4\)`).
		WithArgs(int64(42), int64(1), int64(42), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.AttachSlots(context.Background(), 42, []int64{1, 2}))
	require.NoError(t, repo.AttachServices(context.Background(), 42, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_LoadsServicesAndSlots(t *testing.T) {
	repo, mock := newRepo(t)
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(int64(42), int64(7), "Tran Thi B", "0987654321", nil, "window seat", at, "confirmed", "online", nil, nil, at, at))

	mock.ExpectQuery(`SELECT .* FROM booking_services bs JOIN services s ON s.id = bs.service_id WHERE bs.booking_id IN \(\$1\)`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "id", "business_id", "name", "duration_minutes", "price_cents", "currency", "active", "position"}).
			AddRow(int64(42), int64(3), int64(7), "Haircut", 30, int64(150000), "VND", true, 1).
			AddRow(int64(42), int64(4), int64(7), "Wash", 15, int64(50000), "VND", true, 2))

	mock.ExpectQuery(`SELECT slot_id FROM booking_slots WHERE booking_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"slot_id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	b, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, b.Status)
	assert.Nil(t, b.CustomerEmail)
	require.NotNil(t, b.Notes)
	assert.Equal(t, "window seat", *b.Notes)
	assert.Len(t, b.Services, 2)
	assert.Equal(t, 45, b.TotalDuration())
	assert.Equal(t, []int64{1, 2, 3}, b.SlotIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountOverlappingActive(t *testing.T) {
	repo, mock := newRepo(t)
	from := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	to := from.Add(30 * time.Minute)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT b.id, b.scheduled_at, SUM\(s.duration_minutes\) AS total_minutes FROM bookings b ` +
		`JOIN booking_services bs ON bs.booking_id = b.id JOIN services s ON s.id = bs.service_id ` +
		`WHERE b.business_id = \$1 AND b.status IN \(\$2,\$3\) AND b.scheduled_at < \$4 ` +
		`GROUP BY b.id, b.scheduled_at HAVING b.scheduled_at \+ make_interval\(mins => SUM\(s.duration_minutes\)::int\) > \$5\) AS overlapping`).
		WithArgs(int64(7), "confirmed", "in_progress", to, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOverlappingActive(context.Background(), 7, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListActiveRanges(t *testing.T) {
	repo, mock := newRepo(t)
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	at := from.Add(9 * time.Hour)

	mock.ExpectQuery(`SELECT b.id, b.scheduled_at, SUM\(s.duration_minutes\) AS total_minutes FROM bookings b .* ORDER BY b.scheduled_at ASC`).
		WithArgs(int64(7), "confirmed", "in_progress", to, from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "total_minutes"}).AddRow(int64(1), at, 45))

	ranges, err := repo.ListActiveRanges(context.Background(), 7, from, to)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, at.Add(45*time.Minute), ranges[0].End)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE bookings SET status = \$1, started_at = \$2, completed_at = \$3, updated_at = now\(\) WHERE id = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), &domain.Booking{ID: 9, Status: domain.StatusCancelled})
	assert.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
