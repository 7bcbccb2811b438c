package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SlotBooking/internal/api/handlers"
	checkAvailabilityHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/check_availability"
	createBookingHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/create_booking"
	createWalkInHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/create_walk_in"
	generateSlotsHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/generate_slots"
	getBookingHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/get_booking"
	getCapacityUsageHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/get_capacity_usage"
	listBookingsHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/list_bookings"
	updateBookingStatusHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/update_booking_status"
	updateOperatingHoursHandler "github.com/m04kA/SMC-SlotBooking/internal/api/handlers/update_operating_hours"
	"github.com/m04kA/SMC-SlotBooking/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBooking/internal/capacity"
	"github.com/m04kA/SMC-SlotBooking/internal/config"
	"github.com/m04kA/SMC-SlotBooking/internal/domain"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/cache"
	"github.com/m04kA/SMC-SlotBooking/internal/infra/lock"
	"github.com/m04kA/SMC-SlotBooking/internal/scheduler"
	bookingsService "github.com/m04kA/SMC-SlotBooking/internal/service/bookings"
	businessesService "github.com/m04kA/SMC-SlotBooking/internal/service/businesses"
	checkAvailabilityUC "github.com/m04kA/SMC-SlotBooking/internal/usecase/check_availability"
	createBookingUC "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_booking"
	createWalkInUC "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_walk_in"
	generateSlotsUC "github.com/m04kA/SMC-SlotBooking/internal/usecase/generate_slots"
	"github.com/m04kA/SMC-SlotBooking/pkg/logger"
	"github.com/m04kA/SMC-SlotBooking/pkg/metrics"
)

func main() {
	configPath := "config.toml"
	if p := os.Getenv("SLOTS_CONFIG"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SlotBooking...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены); nil-метрики ничего не пишут
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	store, err := openStorage(cfg, metricsCollector, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer store.close()

	var businessRepository cache.BusinessRepository = store.businesses
	if cfg.Cache.Enabled {
		businessRepository = cache.NewBusinesses(store.businesses, cfg.Cache.TTL())
		log.Info("Business cache enabled (ttl=%s)", cfg.Cache.TTL())
	}

	// Стратегии учета вместимости
	strategies := capacity.NewResolver(
		cfg.Booking.Mode(),
		capacity.NewSlotStrategy(store.slots, store.bookings, cfg.Booking.EnforceBreaks),
		capacity.NewRangeStrategy(store.bookings, businessRepository),
	)
	log.Info("Capacity strategy: default=%s, enforce_breaks=%t, lock_timeout=%s",
		cfg.Booking.Mode(), cfg.Booking.EnforceBreaks, cfg.Booking.LockTimeout())

	rules := domain.BookingRules{
		Phone: regexp.MustCompile(cfg.Booking.PhonePattern),
		Email: regexp.MustCompile(domain.DefaultEmailPattern),
	}

	// Инициализируем use cases
	generateSlotsUseCase := generateSlotsUC.NewUseCase(
		businessRepository,
		store.slots,
		metricsCollector,
		cfg.Scheduler.WindowDays,
		log,
	)
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(
		businessRepository,
		store.services,
		strategies,
		log,
	)
	createBookingUseCase := createBookingUC.NewUseCase(
		businessRepository,
		store.services,
		store.bookings,
		strategies,
		store.tx,
		metricsCollector,
		createBookingUC.Options{Rules: rules, EnforceBreaks: cfg.Booking.EnforceBreaks},
		log,
	)
	createWalkInUseCase := createWalkInUC.NewUseCase(
		businessRepository,
		store.services,
		store.bookings,
		store.tx,
		metricsCollector,
		createWalkInUC.Options{Rules: rules, CapacityCheck: cfg.Booking.WalkInCapacityCheck},
		log,
	)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(store.bookings, businessRepository, store.tx, log)
	businessSvc := businessesService.NewService(businessRepository, store.bookings, log)

	// Инициализируем handlers
	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	createWalkIn := createWalkInHandler.NewHandler(createWalkInUseCase, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	updateOperatingHours := updateOperatingHoursHandler.NewHandler(businessSvc, log)
	getCapacityUsage := getCapacityUsageHandler.NewHandler(businessSvc, log)
	generateSlots := generateSlotsHandler.NewHandler(generateSlotsUseCase, log)

	// Контекст фоновых задач, отменяется при остановке
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := store.ping(ctx); err != nil {
			handlers.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации, с ограничением частоты)
	// ============================================================

	public := api.PathPrefix("/businesses/{slug}").Subrouter()
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		public.Use(limiter.Middleware)
		go limiter.RunCleanup(appCtx, time.Minute, 10*time.Minute)
		log.Info("Rate limit enabled: %.1f rps, burst %d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Доступное время начала
	public.HandleFunc("/availability", checkAvailability.Handle).Methods(http.MethodGet)

	// Создание онлайн-бронирования
	public.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Страница подтверждения
	public.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// ============================================================
	// DASHBOARD ROUTES (требуют X-User-ID header, только владелец)
	// ============================================================

	dashboard := api.PathPrefix("/dashboard/businesses/{businessId}").Subrouter()
	dashboard.Use(middleware.Auth)

	// --- Бронирования ---
	dashboard.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	dashboard.HandleFunc("/bookings/{bookingId}", getBooking.HandleOwner).Methods(http.MethodGet)
	dashboard.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	dashboard.HandleFunc("/walk-ins", createWalkIn.Handle).Methods(http.MethodPost)

	// --- Настройки и загрузка ---
	dashboard.HandleFunc("/operating-hours", updateOperatingHours.Handle).Methods(http.MethodPut)
	dashboard.HandleFunc("/capacity", getCapacityUsage.Handle).Methods(http.MethodGet)
	dashboard.HandleFunc("/slots/generate", generateSlots.Handle).Methods(http.MethodPost)

	// Фоновая генерация слотов
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker = lock.Local{}
		if cfg.Redis.Enabled {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			locker = lock.NewRedis(rdb, cfg.Redis.Prefix)
			log.Info("Scheduler uses redis lock at %s", cfg.Redis.Addr)
		}

		jobs = scheduler.New(businessRepository, generateSlotsUseCase, locker, scheduler.Options{
			Spec:        cfg.Scheduler.Spec,
			Concurrency: cfg.Scheduler.Concurrency,
			JobTimeout:  time.Duration(cfg.Scheduler.JobTimeout) * time.Second,
		}, log)
		if err := jobs.Start(appCtx); err != nil {
			log.Fatal("Failed to start scheduler: %v", err)
		}

		if cfg.Scheduler.GenerateOnStart {
			go func() {
				if _, err := jobs.Backfill(appCtx); err != nil {
					log.Error("Initial slot generation failed: %v", err)
				}
			}()
		}
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if jobs != nil {
		jobs.Stop(shutdownCtx)
		log.Info("Scheduler stopped")
	}
	stopApp()

	log.Info("Server stopped gracefully")
}
