// Package memory хранилище в памяти с семантикой строковых блокировок.
//
// Повторяет поведение Postgres-репозиториев: LockRange и LockByID держат блокировку
// до конца транзакции, откат транзакции отменяет все записи. Используется при
// database.driver = "memory" и в тестах движка бронирования.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/pkg/txmanager"
)

type slotKey struct {
	businessID int64
	start      int64
}

type txKey struct{}

// rowLock блокировка строки: семафор на один захват
type rowLock chan struct{}

// tx открытая транзакция: журнал отмены и удерживаемые блокировки
type tx struct {
	undo   []func()
	locked []rowLock
	held   map[rowLock]struct{}
}

// Option настройка хранилища
type Option func(*Store)

// WithLockTimeout ограничивает ожидание блокировки строки, как lock_timeout в Postgres
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// Store общее состояние всех репозиториев
type Store struct {
	mu sync.Mutex

	businesses map[int64]*domain.Business
	services   map[int64]*domain.Service
	slots      map[int64]*domain.Slot
	slotIndex  map[slotKey]int64
	bookings   map[int64]*domain.Booking

	bookingServices map[int64][]int64
	bookingSlots    map[int64][]int64

	rowLocks    map[string]rowLock
	lockTimeout time.Duration

	nextSlotID    int64
	nextBookingID int64

	now func() time.Time
}

// NewStore создает пустое хранилище
func NewStore(opts ...Option) *Store {
	s := &Store{
		businesses:      make(map[int64]*domain.Business),
		services:        make(map[int64]*domain.Service),
		slots:           make(map[int64]*domain.Slot),
		slotIndex:       make(map[slotKey]int64),
		bookings:        make(map[int64]*domain.Booking),
		bookingServices: make(map[int64][]int64),
		bookingSlots:    make(map[int64][]int64),
		rowLocks:        make(map[string]rowLock),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddBusiness регистрирует бизнес (справочные данные, вне транзакций)
func (s *Store) AddBusiness(b domain.Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[b.ID] = &b
}

// AddService регистрирует услугу
func (s *Store) AddService(svc domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = &svc
}

// Do выполняет fn в транзакции; вложенный вызов присоединяется к внешней
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	t := &tx{held: make(map[rowLock]struct{})}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(t)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.rollback(t)
		return err
	}

	s.release(t)
	return nil
}

func (s *Store) rollback(t *tx) {
	s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	s.mu.Unlock()
	s.release(t)
}

func (s *Store) release(t *tx) {
	for i := len(t.locked) - 1; i >= 0; i-- {
		<-t.locked[i]
	}
	t.locked = nil
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// record добавляет шаг отмены; вызывается под s.mu
func record(ctx context.Context, undo func()) {
	if t, ok := txFrom(ctx); ok {
		t.undo = append(t.undo, undo)
	}
}

// rowLock возвращает блокировку строки; вызывается под s.mu
func (s *Store) rowLock(key string) rowLock {
	l, ok := s.rowLocks[key]
	if !ok {
		l = make(rowLock, 1)
		s.rowLocks[key] = l
	}
	return l
}

// lockRows захватывает блокировки в переданном порядке и держит их до конца транзакции.
// Вне транзакции блокировка не удерживается, как у SELECT ... FOR UPDATE в autocommit.
// Отмена контекста и истечение lockTimeout дают txmanager.ErrRetryable;
// уже захваченные блокировки освобождаются вместе с транзакцией.
func (s *Store) lockRows(ctx context.Context, locks []rowLock) error {
	t, ok := txFrom(ctx)
	if !ok {
		return nil
	}

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for _, l := range locks {
		if _, held := t.held[l]; held {
			continue
		}
		select {
		case l <- struct{}{}:
		case <-ctx.Done():
			return fmt.Errorf("%w: memory: wait for row lock: %w", txmanager.ErrRetryable, ctx.Err())
		case <-timeout:
			return fmt.Errorf("%w: memory: row lock wait exceeded %s", txmanager.ErrRetryable, s.lockTimeout)
		}
		t.held[l] = struct{}{}
		t.locked = append(t.locked, l)
	}
	return nil
}

func copySlots(src []*domain.Slot) []*domain.Slot {
	out := make([]*domain.Slot, 0, len(src))
	for _, slot := range src {
		c := *slot
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}
