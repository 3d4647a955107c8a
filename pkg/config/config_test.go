package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	require.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.Freeze.ShortFreezeWindow)
	assert.Equal(t, "admin-group", cfg.Notifications.AdminRecipient)
	assert.Equal(t, 4, cfg.Availability.Workers)
	assert.True(t, cfg.LockJob.Enabled)
	assert.Equal(t, time.Hour, cfg.Kiosk.MaxConnLifetime)
}

func TestOverridesFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SHORT_FREEZE_WINDOW", "12h")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("KIOSK_HEARTBEAT", "not-a-duration")
	cfg := fromViper(v)

	assert.Equal(t, 12*time.Hour, cfg.Freeze.ShortFreezeWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 25*time.Second, cfg.Kiosk.Heartbeat)
}
