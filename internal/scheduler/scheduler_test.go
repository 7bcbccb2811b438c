package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/lock"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBusinesses struct {
	list []*domain.Business
	err  error
}

func (f *fakeBusinesses) List(context.Context) ([]*domain.Business, error) {
	return f.list, f.err
}

var tomorrow = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   map[int64][]time.Time
	failing map[int64]bool
}

func newGenerator() *fakeGenerator {
	return &fakeGenerator{calls: make(map[int64][]time.Time), failing: make(map[int64]bool)}
}

func (g *fakeGenerator) GenerateForDate(_ context.Context, b *domain.Business, date time.Time) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[b.ID] = append(g.calls[b.ID], date)
	if g.failing[b.ID] {
		return 0, errors.New("insert failed")
	}
	return 32, nil
}

func (g *fakeGenerator) Tomorrow(*domain.Business) (time.Time, error) {
	return tomorrow, nil
}

func (g *fakeGenerator) WindowDates(*domain.Business) ([]time.Time, error) {
	return []time.Time{tomorrow.AddDate(0, 0, -1), tomorrow, tomorrow.AddDate(0, 0, 1)}, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (lock.Release, error) {
	return nil, lock.ErrNotAcquired
}

func businesses(ids ...int64) *fakeBusinesses {
	f := &fakeBusinesses{}
	for _, id := range ids {
		f.list = append(f.list, &domain.Business{ID: id})
	}
	return f
}

func TestRunDaily_ToleratesFailures(t *testing.T) {
	gen := newGenerator()
	gen.failing[2] = true
	s := New(businesses(1, 2, 3), gen, nil, Options{Spec: "0 1 * * *", Concurrency: 2}, nopLogger{})

	res, err := s.RunDaily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Businesses: 3, Created: 64, Failed: 1}, res)
	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, []time.Time{tomorrow}, gen.calls[id], "business %d", id)
	}
}

func TestBackfill_WholeWindow(t *testing.T) {
	gen := newGenerator()
	s := New(businesses(1), gen, lock.Local{}, Options{Spec: "0 1 * * *"}, nopLogger{})

	res, err := s.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 96, res.Created)
	assert.Len(t, gen.calls[1], 3)
}

func TestRunDaily_SkippedWhenLocked(t *testing.T) {
	gen := newGenerator()
	s := New(businesses(1), gen, busyLocker{}, Options{Spec: "0 1 * * *"}, nopLogger{})

	res, err := s.RunDaily(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, gen.calls)
}

func TestRunDaily_ListError(t *testing.T) {
	s := New(&fakeBusinesses{err: errors.New("db down")}, newGenerator(), nil, Options{Spec: "0 1 * * *"}, nopLogger{})

	_, err := s.RunDaily(context.Background())
	assert.Error(t, err)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(businesses(), newGenerator(), nil, Options{Spec: "not a spec"}, nopLogger{})
	assert.Error(t, s.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := New(businesses(), newGenerator(), nil, Options{Spec: "@daily"}, nopLogger{})
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
