package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBooking/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[database]
driver = "memory"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, domain.CapacityModeSlots, cfg.Booking.Mode())
	assert.Equal(t, 3000, cfg.Booking.LockTimeoutMs)
	assert.Equal(t, domain.DefaultPhonePattern, cfg.Booking.PhonePattern)
	assert.Equal(t, 7, cfg.Scheduler.WindowDays)
	assert.Equal(t, "0 1 * * *", cfg.Scheduler.Spec)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoad_FileValuesAndEnv(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[database]
host = "db"
dbname = "slots"
password = "from-file"

[booking]
lock_timeout_ms = 500
capacity_strategy = "range"
enforce_breaks = true
`)
	t.Setenv("SLOTS_DB_PASSWORD", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, domain.CapacityModeRange, cfg.Booking.Mode())
	assert.True(t, cfg.Booking.EnforceBreaks)
	assert.Equal(t, int64(500), cfg.Booking.LockTimeout().Milliseconds())
	assert.Contains(t, cfg.Database.DSN(), "password=from-env")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "[database]\ndriver = \"sqlite\"\n",
		"postgres no host": "[database]\ndriver = \"postgres\"\n",
		"bad strategy":     "[database]\ndriver = \"memory\"\n[booking]\ncapacity_strategy = \"fifo\"\n",
		"bad cron":         "[database]\ndriver = \"memory\"\n[scheduler]\nenabled = true\nspec = \"every day\"\n",
		"bad phone":        "[database]\ndriver = \"memory\"\n[booking]\nphone_pattern = \"([\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
