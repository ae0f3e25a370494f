package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.Parse(&cfg, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, "__session", cfg.SessionCookieName)
	assert.Equal(t, "fixture", cfg.DataSource)
	assert.Equal(t, 15*time.Second, cfg.StatsCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.RecentTxCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.WebhookTolerance)
	assert.Equal(t, 500, cfg.ReconcileBatchSize)
	assert.Equal(t, 6, cfg.MetadataSyncMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.MetadataSyncBaseDelay)
	assert.Equal(t, 10*time.Minute, cfg.MetadataSyncPendingTTL)
	assert.Equal(t,
		[]string{"/login", "/signup", "/", "/api/webhooks*", "/verify-email", "/forgot-password", "/healthz"},
		cfg.PublicRoutes,
	)
}

func TestValidate(t *testing.T) {
	saved := Cfg
	t.Cleanup(func() { Cfg = saved })

	t.Run("missing secrets", func(t *testing.T) {
		Cfg = Config{IdentityProvider: "mock", DataSource: "fixture", ReconcileBatchSize: 1}
		err := Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_JWT_SECRET")
		assert.Contains(t, err.Error(), "IDENTITY_WEBHOOK_SECRET")
	})

	t.Run("clerk needs api key", func(t *testing.T) {
		Cfg = Config{
			SessionJWTSecret:      "s",
			IdentityWebhookSecret: "w",
			IdentityProvider:      "clerk",
			DataSource:            "store",
			ReconcileBatchSize:    1,
		}
		err := Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "IDENTITY_SECRET_KEY")
	})

	t.Run("unknown data source", func(t *testing.T) {
		Cfg = Config{
			SessionJWTSecret:      "s",
			IdentityWebhookSecret: "w",
			IdentityProvider:      "mock",
			DataSource:            "excel",
			ReconcileBatchSize:    1,
		}
		assert.ErrorContains(t, Validate(), "DATA_SOURCE")
	})

	t.Run("valid", func(t *testing.T) {
		Cfg = Config{
			SessionJWTSecret:        "s",
			IdentityWebhookSecret:   "w",
			IdentityProvider:        "mock",
			DataSource:              "store",
			ReconcileBatchSize:      500,
			MetadataSyncMaxAttempts: 6,
		}
		assert.NoError(t, Validate())
		assert.False(t, Cfg.UseFixtureData())
	})
}
