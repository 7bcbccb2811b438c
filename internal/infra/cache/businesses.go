// Package cache кеш справочных данных поверх репозиториев.
package cache

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// BusinessRepository репозиторий, который оборачивает кеш
type BusinessRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Business, error)
	List(ctx context.Context) ([]*domain.Business, error)
	LockByID(ctx context.Context, id int64) error
	UpdateOperatingHours(ctx context.Context, id int64, hours domain.OperatingHours) error
}

// Businesses кеширует поиск бизнеса по id и slug
// Блокировки и список всегда идут в хранилище
type Businesses struct {
	next  BusinessRepository
	store *gocache.Cache
}

// NewBusinesses создает кеширующий декоратор
func NewBusinesses(next BusinessRepository, ttl time.Duration) *Businesses {
	return &Businesses{
		next:  next,
		store: gocache.New(ttl, 2*ttl),
	}
}

func idKey(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

func slugKey(slug string) string {
	return "slug:" + slug
}

func (c *Businesses) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	if b, ok := c.get(idKey(id)); ok {
		return b, nil
	}
	b, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(b)
	return clone(b), nil
}

func (c *Businesses) GetBySlug(ctx context.Context, slug string) (*domain.Business, error) {
	if b, ok := c.get(slugKey(slug)); ok {
		return b, nil
	}
	b, err := c.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.put(b)
	return clone(b), nil
}

func (c *Businesses) List(ctx context.Context) ([]*domain.Business, error) {
	return c.next.List(ctx)
}

func (c *Businesses) LockByID(ctx context.Context, id int64) error {
	return c.next.LockByID(ctx, id)
}

// UpdateOperatingHours сохраняет часы и сбрасывает обе записи бизнеса
func (c *Businesses) UpdateOperatingHours(ctx context.Context, id int64, hours domain.OperatingHours) error {
	cached, ok := c.get(idKey(id))
	err := c.next.UpdateOperatingHours(ctx, id, hours)
	c.store.Delete(idKey(id))
	if ok {
		c.store.Delete(slugKey(cached.Slug))
	}
	if err != nil {
		return err
	}
	if !ok {
		// slug неизвестен, поэтому сбрасываем все
		c.store.Flush()
	}
	return nil
}

func (c *Businesses) get(key string) (*domain.Business, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return clone(v.(*domain.Business)), true
}

func (c *Businesses) put(b *domain.Business) {
	stored := clone(b)
	c.store.SetDefault(idKey(b.ID), stored)
	c.store.SetDefault(slugKey(b.Slug), stored)
}

// clone копирует бизнес вместе с картой часов, чтобы вызывающий код не менял кеш
func clone(b *domain.Business) *domain.Business {
	out := *b
	if b.OperatingHours != nil {
		out.OperatingHours = make(domain.OperatingHours, len(b.OperatingHours))
		for day, hours := range b.OperatingHours {
			hours.Breaks = append([]domain.Break(nil), hours.Breaks...)
			out.OperatingHours[day] = hours
		}
	}
	return &out
}
