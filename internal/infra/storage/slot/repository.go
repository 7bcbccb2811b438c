package slot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBooking/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"business_id",
	"start_time",
	"end_time",
	"date",
	"capacity",
	"original_capacity",
	"created_at",
}

// Repository репозиторий слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertBatch вставляет слоты одним запросом, пропуская уже существующие (business_id, start_time)
// Возвращает количество реально созданных строк
func (r *Repository) InsertBatch(ctx context.Context, slots []domain.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Insert("slots").
		Columns("business_id", "start_time", "end_time", "date", "capacity", "original_capacity")
	for _, s := range slots {
		builder = builder.Values(
			s.BusinessID,
			s.StartTime,
			s.EndTime,
			s.Date.Format(domain.DateFormat),
			s.Capacity,
			s.OriginalCapacity,
		)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (business_id, start_time) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertBatch - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: InsertBatch - execute insert: %w", ErrExecQuery, err)
	}

	created, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertBatch - rows affected: %w", ErrExecQuery, err)
	}

	return int(created), nil
}

// ListByDate возвращает слоты бизнеса за дату, упорядоченные по start_time
// Чтение без блокировок: результат носит рекомендательный характер
func (r *Repository) ListByDate(ctx context.Context, businessID int64, date time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"business_id": businessID, "date": date.Format(domain.DateFormat)}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// LockRange блокирует слоты с start_time в [from, to) в порядке возрастания start_time
// Должен вызываться внутри транзакции: единый порядок блокировок исключает deadlock
func (r *Repository) LockRange(ctx context.Context, businessID int64, from, to time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"business_id": businessID}).
		Where(squirrel.GtOrEq{"start_time": from}).
		Where(squirrel.Lt{"start_time": to}).
		OrderBy("start_time ASC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: LockRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: LockRange - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// DecrementCapacity уменьшает capacity каждого слота на 1
// Условие capacity > 0 страхует CHECK-ограничение; если затронуты не все слоты - ErrCapacityExhausted
func (r *Repository) DecrementCapacity(ctx context.Context, slotIDs []int64) error {
	if len(slotIDs) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("capacity", squirrel.Expr("capacity - 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": slotIDs}).
		Where(squirrel.Gt{"capacity": 0}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DecrementCapacity - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DecrementCapacity - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DecrementCapacity - rows affected: %w", ErrExecQuery, err)
	}
	if int(affected) != len(slotIDs) {
		return fmt.Errorf("%w: updated %d of %d slots", ErrCapacityExhausted, affected, len(slotIDs))
	}

	return nil
}

func scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(
			&s.ID,
			&s.BusinessID,
			&s.StartTime,
			&s.EndTime,
			&s.Date,
			&s.Capacity,
			&s.OriginalCapacity,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan slot: %w", ErrScanRow, err)
		}
		slots = append(slots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", ErrScanRow, err)
	}
	return slots, nil
}
