package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

type countingRepo struct {
	business  domain.Business
	byID      int
	bySlug    int
	updateErr error
}

func (r *countingRepo) GetByID(_ context.Context, id int64) (*domain.Business, error) {
	r.byID++
	if id != r.business.ID {
		return nil, errors.New("not found")
	}
	b := r.business
	return &b, nil
}

func (r *countingRepo) GetBySlug(_ context.Context, slug string) (*domain.Business, error) {
	r.bySlug++
	if slug != r.business.Slug {
		return nil, errors.New("not found")
	}
	b := r.business
	return &b, nil
}

func (r *countingRepo) List(context.Context) ([]*domain.Business, error) {
	b := r.business
	return []*domain.Business{&b}, nil
}

func (r *countingRepo) LockByID(context.Context, int64) error { return nil }

func (r *countingRepo) UpdateOperatingHours(_ context.Context, _ int64, hours domain.OperatingHours) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.business.OperatingHours = hours
	return nil
}

func newRepo() *countingRepo {
	return &countingRepo{business: domain.Business{
		ID: 7, Slug: "pho-salon", Capacity: 2, OperatingHours: domain.DefaultOperatingHours(),
	}}
}

func TestBusinesses_CachesBothKeys(t *testing.T) {
	repo := newRepo()
	c := NewBusinesses(repo, time.Minute)
	ctx := context.Background()

	_, err := c.GetBySlug(ctx, "pho-salon")
	require.NoError(t, err)
	_, err = c.GetBySlug(ctx, "pho-salon")
	require.NoError(t, err)
	b, err := c.GetByID(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, "pho-salon", b.Slug)
	assert.Equal(t, 1, repo.bySlug)
	assert.Equal(t, 0, repo.byID)
}

func TestBusinesses_ErrorsNotCached(t *testing.T) {
	repo := newRepo()
	c := NewBusinesses(repo, time.Minute)

	_, err := c.GetBySlug(context.Background(), "missing")
	require.Error(t, err)
	_, err = c.GetBySlug(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 2, repo.bySlug)
}

func TestBusinesses_ReturnsCopies(t *testing.T) {
	c := NewBusinesses(newRepo(), time.Minute)
	ctx := context.Background()

	b, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	b.Capacity = 99
	b.OperatingHours["monday"] = domain.DayHours{Closed: true}

	again, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Capacity)
	assert.False(t, again.OperatingHours["monday"].Closed)
}

func TestBusinesses_UpdateInvalidates(t *testing.T) {
	repo := newRepo()
	c := NewBusinesses(repo, time.Minute)
	ctx := context.Background()

	_, err := c.GetBySlug(ctx, "pho-salon")
	require.NoError(t, err)

	hours := domain.OperatingHours{"monday": {Open: "10:00", Close: "11:00"}}
	require.NoError(t, c.UpdateOperatingHours(ctx, 7, hours))

	b, err := c.GetBySlug(ctx, "pho-salon")
	require.NoError(t, err)
	assert.Equal(t, hours, b.OperatingHours)
	assert.Equal(t, 2, repo.bySlug)
}

func TestBusinesses_UpdateErrorKeepsNothingStale(t *testing.T) {
	repo := newRepo()
	repo.updateErr = errors.New("db down")
	c := NewBusinesses(repo, time.Minute)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 7)
	require.NoError(t, err)

	err = c.UpdateOperatingHours(ctx, 7, domain.OperatingHours{})
	require.Error(t, err)

	_, err = c.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.byID)
}
