package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBooking/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"business_id",
	"customer_name",
	"customer_phone",
	"customer_email",
	"notes",
	"scheduled_at",
	"status",
	"source",
	"started_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"business_id",
			"customer_name",
			"customer_phone",
			"customer_email",
			"notes",
			"scheduled_at",
			"status",
			"source",
			"started_at",
			"completed_at",
		).
		Values(
			booking.BusinessID,
			booking.CustomerName,
			booking.CustomerPhone,
			booking.CustomerEmail,
			booking.Notes,
			booking.ScheduledAt,
			string(booking.Status),
			string(booking.Source),
			booking.StartedAt,
			booking.CompletedAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return booking, nil
}

// AttachServices создает строки booking_services
func (r *Repository) AttachServices(ctx context.Context, bookingID int64, serviceIDs []int64) error {
	return r.attach(ctx, "AttachServices", "booking_services", "service_id", bookingID, serviceIDs)
}

// AttachSlots создает строки booking_slots
func (r *Repository) AttachSlots(ctx context.Context, bookingID int64, slotIDs []int64) error {
	return r.attach(ctx, "AttachSlots", "booking_slots", "slot_id", bookingID, slotIDs)
}

func (r *Repository) attach(ctx context.Context, op, table, column string, bookingID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Insert(table).Columns("booking_id", column)
	for _, id := range ids {
		builder = builder.Values(bookingID, id)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build insert query: %v", ErrBuildQuery, op, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s - execute insert: %w", ErrExecQuery, op, err)
	}

	return nil
}

// GetByID получает бронирование по ID вместе с услугами и слотами
// Внутри транзакции строка бронирования блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	if err := r.loadServices(ctx, []*domain.Booking{booking}); err != nil {
		return nil, err
	}
	if err := r.loadSlotIDs(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// List получает бронирования бизнеса по фильтру, упорядоченные по scheduled_at
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"business_id": filter.BusinessID})

	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"scheduled_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"scheduled_at": *filter.To})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.Source != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"source": string(*filter.Source)})
	}

	query, args, err := selectBuilder.OrderBy("scheduled_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan booking: %w", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows iteration: %w", ErrScanRow, err)
	}

	if err := r.loadServices(ctx, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// UpdateStatus сохраняет статус и отметки started_at/completed_at
func (r *Repository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", string(booking.Status)).
		Set("started_at", booking.StartedAt).
		Set("completed_at", booking.CompletedAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": booking.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - rows affected: %w", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// activeOverlapQuery бронирования бизнеса в активных статусах, чей интервал
// [scheduled_at, scheduled_at + сумма длительностей услуг) пересекается с [from, to)
func activeOverlapQuery(businessID int64, from, to time.Time) squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"b.id",
		"b.scheduled_at",
		"SUM(s.duration_minutes) AS total_minutes",
	).
		From("bookings b").
		Join("booking_services bs ON bs.booking_id = b.id").
		Join("services s ON s.id = bs.service_id").
		Where(squirrel.Eq{"b.business_id": businessID}).
		Where(squirrel.Eq{"b.status": activeStatuses()}).
		Where(squirrel.Lt{"b.scheduled_at": to}).
		GroupBy("b.id", "b.scheduled_at").
		Having("b.scheduled_at + make_interval(mins => SUM(s.duration_minutes)::int) > ?", from)
}

// CountOverlappingActive считает активные (confirmed, in_progress) бронирования,
// пересекающиеся с полуинтервалом [from, to)
func (r *Repository) CountOverlappingActive(ctx context.Context, businessID int64, from, to time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		FromSelect(activeOverlapQuery(businessID, from, to), "overlapping").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountOverlappingActive - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountOverlappingActive - execute select: %w", ErrExecQuery, err)
	}

	return count, nil
}

// ListActiveRanges возвращает интервалы активных бронирований, пересекающихся с [from, to)
// Используется расчетом доступности в режиме пересечения интервалов (один запрос на день)
func (r *Repository) ListActiveRanges(ctx context.Context, businessID int64, from, to time.Time) ([]domain.TimeRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := activeOverlapQuery(businessID, from, to).
		OrderBy("b.scheduled_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveRanges - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveRanges - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ranges := make([]domain.TimeRange, 0)
	for rows.Next() {
		var (
			id           int64
			scheduledAt  time.Time
			totalMinutes int
		)
		if err := rows.Scan(&id, &scheduledAt, &totalMinutes); err != nil {
			return nil, fmt.Errorf("%w: ListActiveRanges - scan row: %w", ErrScanRow, err)
		}
		ranges = append(ranges, domain.TimeRange{
			Start: scheduledAt,
			End:   scheduledAt.Add(time.Duration(totalMinutes) * time.Minute),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveRanges - rows iteration: %w", ErrScanRow, err)
	}

	return ranges, nil
}

// loadServices подгружает услуги для набора бронирований одним запросом
func (r *Repository) loadServices(ctx context.Context, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	byID := make(map[int64]*domain.Booking, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
		b.Services = make([]*domain.Service, 0)
	}

	query, args, err := psqlbuilder.Select(
		"bs.booking_id",
		"s.id",
		"s.business_id",
		"s.name",
		"s.duration_minutes",
		"s.price_cents",
		"s.currency",
		"s.active",
		"s.position",
	).
		From("booking_services bs").
		Join("services s ON s.id = bs.service_id").
		Where(squirrel.Eq{"bs.booking_id": ids}).
		OrderBy("bs.booking_id ASC", "s.position ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadServices - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID int64
			s         domain.Service
		)
		if err := rows.Scan(
			&bookingID,
			&s.ID,
			&s.BusinessID,
			&s.Name,
			&s.DurationMinutes,
			&s.PriceCents,
			&s.Currency,
			&s.Active,
			&s.Position,
		); err != nil {
			return fmt.Errorf("%w: loadServices - scan service: %w", ErrScanRow, err)
		}
		if b, ok := byID[bookingID]; ok {
			b.Services = append(b.Services, &s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadServices - rows iteration: %w", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) loadSlotIDs(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("slot_id").
		From("booking_slots").
		Where(squirrel.Eq{"booking_id": booking.ID}).
		OrderBy("slot_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadSlotIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadSlotIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	booking.SlotIDs = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("%w: loadSlotIDs - scan slot id: %w", ErrScanRow, err)
		}
		booking.SlotIDs = append(booking.SlotIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadSlotIDs - rows iteration: %w", ErrScanRow, err)
	}

	return nil
}

func activeStatuses() []string {
	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b             domain.Booking
		status        string
		source        string
		customerEmail sql.NullString
		notes         sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
	)

	err := row.Scan(
		&b.ID,
		&b.BusinessID,
		&b.CustomerName,
		&b.CustomerPhone,
		&customerEmail,
		&notes,
		&b.ScheduledAt,
		&status,
		&source,
		&startedAt,
		&completedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	b.Source = domain.BookingSource(source)
	if customerEmail.Valid {
		b.CustomerEmail = &customerEmail.String
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	if startedAt.Valid {
		b.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}

	return &b, nil
}
