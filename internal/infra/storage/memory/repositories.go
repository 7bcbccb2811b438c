package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/booking"
	businessRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/business"
	slotRepo "github.com/m04kA/SMC-SlotBooking/internal/infra/storage/slot"
)

// Businesses репозиторий бизнесов поверх Store
type Businesses struct{ s *Store }

// Services репозиторий услуг поверх Store
type Services struct{ s *Store }

// Slots репозиторий слотов поверх Store
type Slots struct{ s *Store }

// Bookings репозиторий бронирований поверх Store
type Bookings struct{ s *Store }

func (s *Store) Businesses() *Businesses { return &Businesses{s: s} }
func (s *Store) Services() *Services     { return &Services{s: s} }
func (s *Store) Slots() *Slots           { return &Slots{s: s} }
func (s *Store) Bookings() *Bookings     { return &Bookings{s: s} }

func (r *Businesses) GetByID(_ context.Context, id int64) (*domain.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.businesses[id]
	if !ok {
		return nil, businessRepo.ErrBusinessNotFound
	}
	c := *b
	return &c, nil
}

func (r *Businesses) GetBySlug(_ context.Context, slug string) (*domain.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.businesses {
		if b.Slug == slug {
			c := *b
			return &c, nil
		}
	}
	return nil, businessRepo.ErrBusinessNotFound
}

func (r *Businesses) List(_ context.Context) ([]*domain.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Business, 0, len(r.s.businesses))
	for _, b := range r.s.businesses {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Businesses) LockByID(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	if _, ok := r.s.businesses[id]; !ok {
		r.s.mu.Unlock()
		return businessRepo.ErrBusinessNotFound
	}
	lock := r.s.rowLock("business:" + strconv.FormatInt(id, 10))
	r.s.mu.Unlock()

	return r.s.lockRows(ctx, []rowLock{lock})
}

func (r *Businesses) UpdateOperatingHours(ctx context.Context, id int64, hours domain.OperatingHours) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.businesses[id]
	if !ok {
		return businessRepo.ErrBusinessNotFound
	}
	prev := b.OperatingHours
	b.OperatingHours = hours
	b.UpdatedAt = r.s.now()
	record(ctx, func() { b.OperatingHours = prev })
	return nil
}

func (r *Services) GetByIDs(_ context.Context, businessID int64, ids []int64) ([]*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Service, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		svc, ok := r.s.services[id]
		if !ok || svc.BusinessID != businessID {
			continue
		}
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// InsertBatch пропускает уже существующие (business_id, start_time)
func (r *Slots) InsertBatch(ctx context.Context, slots []domain.Slot) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := 0
	for _, slot := range slots {
		key := slotKey{businessID: slot.BusinessID, start: slot.StartTime.UnixNano()}
		if _, exists := r.s.slotIndex[key]; exists {
			continue
		}
		r.s.nextSlotID++
		stored := slot
		stored.ID = r.s.nextSlotID
		stored.CreatedAt = r.s.now()
		r.s.slots[stored.ID] = &stored
		r.s.slotIndex[key] = stored.ID
		created++

		id := stored.ID
		record(ctx, func() {
			delete(r.s.slots, id)
			delete(r.s.slotIndex, key)
		})
	}
	return created, nil
}

func (r *Slots) ListByDate(_ context.Context, businessID int64, date time.Time) ([]*domain.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day := date.Format(domain.DateFormat)
	matched := make([]*domain.Slot, 0)
	for _, slot := range r.s.slots {
		if slot.BusinessID == businessID && slot.Date.Format(domain.DateFormat) == day {
			matched = append(matched, slot)
		}
	}
	return copySlots(matched), nil
}

// LockRange блокирует слоты в порядке start_time и читает их после захвата блокировок
func (r *Slots) LockRange(ctx context.Context, businessID int64, from, to time.Time) ([]*domain.Slot, error) {
	r.s.mu.Lock()
	matched := make([]*domain.Slot, 0)
	for _, slot := range r.s.slots {
		if slot.BusinessID == businessID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			matched = append(matched, slot)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })
	locks := make([]rowLock, 0, len(matched))
	for _, slot := range matched {
		locks = append(locks, r.s.rowLock("slot:"+strconv.FormatInt(slot.ID, 10)))
	}
	r.s.mu.Unlock()

	if err := r.s.lockRows(ctx, locks); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return copySlots(matched), nil
}

func (r *Slots) DecrementCapacity(ctx context.Context, slotIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range slotIDs {
		slot, ok := r.s.slots[id]
		if !ok || slot.Capacity <= 0 {
			return fmt.Errorf("%w: slot id=%d", slotRepo.ErrCapacityExhausted, id)
		}
	}
	for _, id := range slotIDs {
		slot := r.s.slots[id]
		slot.Capacity--
		record(ctx, func() { slot.Capacity++ })
	}
	return nil
}

func (r *Bookings) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextBookingID++
	stored := *booking
	stored.ID = r.s.nextBookingID
	stored.CreatedAt = r.s.now()
	stored.UpdatedAt = stored.CreatedAt
	stored.Services = nil
	stored.SlotIDs = nil
	r.s.bookings[stored.ID] = &stored

	id := stored.ID
	record(ctx, func() {
		delete(r.s.bookings, id)
		delete(r.s.bookingServices, id)
		delete(r.s.bookingSlots, id)
	})

	created := *booking
	created.ID = stored.ID
	created.CreatedAt = stored.CreatedAt
	created.UpdatedAt = stored.UpdatedAt
	return &created, nil
}

func (r *Bookings) AttachServices(ctx context.Context, bookingID int64, serviceIDs []int64) error {
	return r.attach(ctx, r.s.bookingServices, bookingID, serviceIDs)
}

func (r *Bookings) AttachSlots(ctx context.Context, bookingID int64, slotIDs []int64) error {
	return r.attach(ctx, r.s.bookingSlots, bookingID, slotIDs)
}

func (r *Bookings) attach(ctx context.Context, links map[int64][]int64, bookingID int64, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[bookingID]; !ok {
		return bookingRepo.ErrBookingNotFound
	}
	existing := make(map[int64]struct{}, len(links[bookingID]))
	for _, id := range links[bookingID] {
		existing[id] = struct{}{}
	}
	for _, id := range ids {
		if _, dup := existing[id]; dup {
			return fmt.Errorf("%w: duplicate link booking=%d id=%d", bookingRepo.ErrExecQuery, bookingID, id)
		}
		existing[id] = struct{}{}
	}

	prev := links[bookingID]
	links[bookingID] = append(append([]int64(nil), prev...), ids...)
	record(ctx, func() { links[bookingID] = prev })
	return nil
}

// GetByID внутри транзакции блокирует строку бронирования
func (r *Bookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.s.mu.Lock()
	if _, ok := r.s.bookings[id]; !ok {
		r.s.mu.Unlock()
		return nil, bookingRepo.ErrBookingNotFound
	}
	lock := r.s.rowLock("booking:" + strconv.FormatInt(id, 10))
	r.s.mu.Unlock()

	if err := r.s.lockRows(ctx, []rowLock{lock}); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	out := r.hydrate(b)
	out.SlotIDs = append([]int64(nil), r.s.bookingSlots[id]...)
	return out, nil
}

func (r *Bookings) List(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Booking, 0)
	for _, b := range r.s.bookings {
		if b.BusinessID != filter.BusinessID {
			continue
		}
		if filter.From != nil && b.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.ScheduledAt.Before(*filter.To) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.Source != nil && b.Source != *filter.Source {
			continue
		}
		out = append(out, r.hydrate(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Bookings) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[booking.ID]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	prevStatus, prevStarted, prevCompleted := b.Status, b.StartedAt, b.CompletedAt
	b.Status = booking.Status
	b.StartedAt = booking.StartedAt
	b.CompletedAt = booking.CompletedAt
	b.UpdatedAt = r.s.now()
	record(ctx, func() {
		b.Status, b.StartedAt, b.CompletedAt = prevStatus, prevStarted, prevCompleted
	})
	return nil
}

func (r *Bookings) CountOverlappingActive(ctx context.Context, businessID int64, from, to time.Time) (int, error) {
	ranges, err := r.ListActiveRanges(ctx, businessID, from, to)
	if err != nil {
		return 0, err
	}
	return len(ranges), nil
}

func (r *Bookings) ListActiveRanges(_ context.Context, businessID int64, from, to time.Time) ([]domain.TimeRange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	window := domain.TimeRange{Start: from, End: to}
	ranges := make([]domain.TimeRange, 0)
	for _, b := range r.s.bookings {
		if b.BusinessID != businessID || !b.Status.IsActive() {
			continue
		}
		h := r.hydrate(b)
		if len(h.Services) == 0 {
			continue
		}
		if rng := h.Range(); rng.Overlaps(window) {
			ranges = append(ranges, rng)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })
	return ranges, nil
}

// hydrate копия бронирования с подгруженными услугами; вызывается под s.mu
func (r *Bookings) hydrate(b *domain.Booking) *domain.Booking {
	out := *b
	out.Services = make([]*domain.Service, 0, len(r.s.bookingServices[b.ID]))
	for _, id := range r.s.bookingServices[b.ID] {
		if svc, ok := r.s.services[id]; ok {
			c := *svc
			out.Services = append(out.Services, &c)
		}
	}
	return &out
}
