// Package scheduler ежедневная генерация слотов по cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/lock"
)

const (
	dailyLockKey    = "slots:generate-daily"
	backfillLockKey = "slots:generate-window"
)

// Options настройки планировщика
type Options struct {
	Spec        string        // cron-выражение ежедневного запуска
	Concurrency int           // сколько бизнесов генерируется параллельно
	JobTimeout  time.Duration // ограничение на один пакет
	LockTTL     time.Duration
}

// BatchResult итог пакетного запуска
type BatchResult struct {
	Businesses int
	Created    int
	Failed     int
	Skipped    bool // блокировку держит другой экземпляр
}

// Scheduler запускает генерацию слотов для всех бизнесов
type Scheduler struct {
	cron       *cron.Cron
	businesses BusinessLister
	generator  Generator
	locker     Locker
	opts       Options
	logger     Logger
}

// New создает планировщик; cron стартует в Start
func New(businesses BusinessLister, generator Generator, locker Locker, opts Options, logger Logger) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.JobTimeout
	}
	if locker == nil {
		locker = lock.Local{}
	}

	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		businesses: businesses,
		generator:  generator,
		locker:     locker,
		opts:       opts,
		logger:     logger,
	}
}

// Start регистрирует ежедневную задачу и запускает cron
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.opts.Spec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
		defer cancel()
		if _, err := s.RunDaily(jobCtx); err != nil {
			s.logger.Error("Scheduler: daily generation failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron spec %q: %w", s.opts.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler: started with spec %q", s.opts.Spec)
	return nil
}

// Stop останавливает cron и ждет завершения запущенной задачи
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler: stop timed out, running job abandoned")
	}
}

// RunDaily генерирует слоты на завтра для каждого бизнеса
func (s *Scheduler) RunDaily(ctx context.Context) (BatchResult, error) {
	return s.runBatch(ctx, "daily", dailyLockKey, func(b *domain.Business) ([]time.Time, error) {
		tomorrow, err := s.generator.Tomorrow(b)
		if err != nil {
			return nil, err
		}
		return []time.Time{tomorrow}, nil
	})
}

// Backfill генерирует все скользящее окно (запуск при старте)
func (s *Scheduler) Backfill(ctx context.Context) (BatchResult, error) {
	return s.runBatch(ctx, "backfill", backfillLockKey, s.generator.WindowDates)
}

// runBatch ошибка одного бизнеса логируется и не прерывает остальные
func (s *Scheduler) runBatch(ctx context.Context, name, key string, datesFor func(*domain.Business) ([]time.Time, error)) (BatchResult, error) {
	var result BatchResult

	release, err := s.locker.Acquire(ctx, key, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Info("Scheduler: %s batch is running elsewhere, skipped", name)
			result.Skipped = true
			return result, nil
		}
		return result, fmt.Errorf("scheduler: acquire lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Scheduler: release %s lock: %v", name, err)
		}
	}()

	businesses, err := s.businesses.List(ctx)
	if err != nil {
		return result, fmt.Errorf("scheduler: list businesses: %w", err)
	}
	result.Businesses = len(businesses)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, business := range businesses {
		business := business
		g.Go(func() error {
			created, err := s.generateBusiness(gctx, business, datesFor)

			mu.Lock()
			defer mu.Unlock()
			result.Created += created
			if err != nil {
				result.Failed++
				s.logger.Error("Scheduler: business=%d error=%v", business.ID, err)
				return nil
			}
			s.logger.Info("Scheduler: business=%d created=%d", business.ID, created)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Scheduler: %s batch done: businesses=%d created=%d failed=%d",
		name, result.Businesses, result.Created, result.Failed)
	return result, nil
}

func (s *Scheduler) generateBusiness(ctx context.Context, business *domain.Business, datesFor func(*domain.Business) ([]time.Time, error)) (int, error) {
	dates, err := datesFor(business)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, date := range dates {
		created, err := s.generator.GenerateForDate(ctx, business, date)
		total += created
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
