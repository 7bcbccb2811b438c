package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/config"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/booking"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/storage/memory"
	serviceRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/service"
	slotRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/slot"
	"github.com/m04kA/SMC-SlotBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-SlotBooking/pkg/logger"
	"github.com/m04kA/SMC-SlotBooking/pkg/metrics"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
)

type businessStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Business, error)
	List(ctx context.Context) ([]*domain.Business, error)
	LockByID(ctx context.Context, id int64) error
	UpdateOperatingHours(ctx context.Context, id int64, hours domain.OperatingHours) error
}

type serviceStore interface {
	GetByIDs(ctx context.Context, businessID int64, ids []int64) ([]*domain.Service, error)
}

type slotStore interface {
	InsertBatch(ctx context.Context, slots []domain.Slot) (int, error)
	ListByDate(ctx context.Context, businessID int64, date time.Time) ([]*domain.Slot, error)
	LockRange(ctx context.Context, businessID int64, from, to time.Time) ([]*domain.Slot, error)
	DecrementCapacity(ctx context.Context, slotIDs []int64) error
}

type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	AttachServices(ctx context.Context, bookingID int64, serviceIDs []int64) error
	AttachSlots(ctx context.Context, bookingID int64, slotIDs []int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking) error
	CountOverlappingActive(ctx context.Context, businessID int64, from, to time.Time) (int, error)
	ListActiveRanges(ctx context.Context, businessID int64, from, to time.Time) ([]domain.TimeRange, error)
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// storage репозитории выбранного драйвера
type storage struct {
	businesses businessStore
	services   serviceStore
	slots      slotStore
	bookings   bookingStore
	tx         txManager
	ping       func(ctx context.Context) error
	close      func()
}

// openStorage Postgres или хранилище в памяти (database.driver)
func openStorage(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memory.NewStore(memory.WithLockTimeout(cfg.Booking.LockTimeout()))
		if cfg.Database.SeedDemo {
			store.SeedDemo()
			log.Info("In-memory storage seeded with demo business (slug=demo-salon, owner=%d)", memory.DemoOwnerID)
		}
		log.Warn("Using in-memory storage: data is lost on restart")
		return &storage{
			businesses: store.Businesses(),
			services:   store.Services(),
			slots:      store.Slots(),
			bookings:   store.Bookings(),
			tx:         store,
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	stopPoolStats := make(chan struct{})
	wrapped := dbmetrics.WrapWithDefault(db, m, stopPoolStats)

	return &storage{
		businesses: businessRepo.NewRepository(wrapped),
		services:   serviceRepo.NewRepository(wrapped),
		slots:      slotRepo.NewRepository(wrapped),
		bookings:   bookingRepo.NewRepository(wrapped),
		tx:         txmanager.NewTransactionManager(wrapped, txmanager.WithLockTimeout(cfg.Booking.LockTimeout())),
		ping:       wrapped.PingContext,
		close: func() {
			close(stopPoolStats)
			db.Close()
		},
	}, nil
}
