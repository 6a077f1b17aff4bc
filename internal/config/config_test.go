package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DB_NAME", "couvoir_test")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "0 7 * * *", cfg.Reminders.CronSchedule)
	assert.NotEmpty(t, cfg.Reminders.Timezone)
	assert.False(t, cfg.NotifyEnabled())
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://ntfy.example/incubator")
	t.Setenv("NOTIFY_TOKEN", "secret")
	t.Setenv("REMINDER_CRON_SCHEDULE", "30 6 * * *")
	t.Setenv("TIMEZONE", "Africa/Conakry")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.True(t, cfg.NotifyEnabled())
	assert.Equal(t, "30 6 * * *", cfg.Reminders.CronSchedule)
	assert.Equal(t, "Africa/Conakry", cfg.Reminders.Timezone)
}

func TestLoad_SheetsPairRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/tmp/creds.json")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be provided together")
}

func TestValidate_MissingMongo(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server:    ServerConfig{Port: "8080"},
		Reminders: ReminderConfig{CronSchedule: "0 7 * * *", Timezone: "UTC"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")
}
