package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Booking   BookingConfig   `toml:"booking"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Redis     RedisConfig     `toml:"redis"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`  // секунды
	WriteTimeout    int `toml:"write_timeout"` // секунды
	IdleTimeout     int `toml:"idle_timeout"`  // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"` // postgres | memory
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	SeedDemo        bool   `toml:"seed_demo"`         // только для memory
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type BookingConfig struct {
	LockTimeoutMs       int    `toml:"lock_timeout_ms"`
	CapacityStrategy    string `toml:"capacity_strategy"`
	EnforceBreaks       bool   `toml:"enforce_breaks"`
	PhonePattern        string `toml:"phone_pattern"`
	WalkInCapacityCheck bool   `toml:"walk_in_capacity_check"`
}

// LockTimeout ограничение ожидания блокировки строк
func (b BookingConfig) LockTimeout() time.Duration {
	return time.Duration(b.LockTimeoutMs) * time.Millisecond
}

// Mode режим учета вместимости по умолчанию
func (b BookingConfig) Mode() domain.CapacityMode {
	return domain.CapacityMode(b.CapacityStrategy)
}

type SchedulerConfig struct {
	Enabled         bool   `toml:"enabled"`
	Spec            string `toml:"spec"`
	WindowDays      int    `toml:"window_days"`
	GenerateOnStart bool   `toml:"generate_on_start"`
	Concurrency     int    `toml:"concurrency"`
	JobTimeout      int    `toml:"job_timeout"` // секунды
}

type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// TTL время жизни записи кеша
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Load читает .env (если есть), файл конфигурации и переменные окружения
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SLOTS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SLOTS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SLOTS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SLOTS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SLOTS_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
}

func applyDefaults(cfg *Config) {
	setInt(&cfg.Server.HTTPPort, 8080)
	setInt(&cfg.Server.ReadTimeout, 10)
	setInt(&cfg.Server.WriteTimeout, 10)
	setInt(&cfg.Server.IdleTimeout, 60)
	setInt(&cfg.Server.ShutdownTimeout, 15)

	setString(&cfg.Database.Driver, DriverPostgres)
	setInt(&cfg.Database.Port, 5432)
	setString(&cfg.Database.SSLMode, "disable")
	setInt(&cfg.Database.MaxOpenConns, 25)
	setInt(&cfg.Database.MaxIdleConns, 5)
	setInt(&cfg.Database.ConnMaxLifetime, 300)

	setString(&cfg.Logs.Level, "info")

	setString(&cfg.Metrics.Path, "/metrics")
	setString(&cfg.Metrics.ServiceName, "slot-booking")

	setInt(&cfg.Booking.LockTimeoutMs, 3000)
	setString(&cfg.Booking.CapacityStrategy, string(domain.CapacityModeSlots))
	setString(&cfg.Booking.PhonePattern, domain.DefaultPhonePattern)

	setString(&cfg.Scheduler.Spec, "0 1 * * *")
	setInt(&cfg.Scheduler.WindowDays, domain.DefaultRollingWindowDays)
	setInt(&cfg.Scheduler.Concurrency, 4)
	setInt(&cfg.Scheduler.JobTimeout, 600)

	setInt(&cfg.Cache.TTLSeconds, 60)

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	setInt(&cfg.RateLimit.Burst, 10)

	setString(&cfg.Redis.Addr, "localhost:6379")
	setString(&cfg.Redis.Prefix, "slot-booking")
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Validate проверяет согласованность значений после применения умолчаний
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("config: database.host and database.dbname are required for postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}

	if !c.Booking.Mode().Valid() {
		return fmt.Errorf("config: unknown booking.capacity_strategy %q", c.Booking.CapacityStrategy)
	}
	if c.Booking.LockTimeoutMs < 0 {
		return errors.New("config: booking.lock_timeout_ms must not be negative")
	}
	if _, err := regexp.Compile(c.Booking.PhonePattern); err != nil {
		return fmt.Errorf("config: booking.phone_pattern: %w", err)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("config: scheduler.spec: %w", err)
		}
	}
	if c.Scheduler.WindowDays < 1 || c.Scheduler.WindowDays > 60 {
		return errors.New("config: scheduler.window_days must be between 1 and 60")
	}

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid server.http_port %d", c.Server.HTTPPort)
	}
	return nil
}
