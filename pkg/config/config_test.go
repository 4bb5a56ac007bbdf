package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SRR_JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "app.db", cfg.DB.DSN)
	assert.Equal(t, "test", cfg.Stripe.Environment())
	assert.Equal(t, int64(100), cfg.Stripe.EntitlementPageCap)
	assert.Equal(t, 24*time.Hour, cfg.Stripe.EventRetention())
	assert.Equal(t, 24*time.Hour, cfg.JWT.SessionTTL())
	assert.False(t, cfg.FeatureFlags.AutoMigrate)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SRR_APP_ENV", "prod")
	t.Setenv("SRR_DB_DRIVER", "postgres")
	t.Setenv("SRR_DB_DSN", "postgres://localhost/app")
	t.Setenv("SRR_STRIPE_MONTHLY_PRICE_ID", "price_monthly")
	t.Setenv("SRR_STRIPE_EVENT_RETENTION_HOURS", "48")
	t.Setenv("SRR_AUTO_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProd())
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Stripe.EventRetention())
	assert.True(t, cfg.FeatureFlags.AutoMigrate)

	priceID, ok := cfg.Stripe.PriceIDFor("monthly")
	assert.True(t, ok)
	assert.Equal(t, "price_monthly", priceID)
}

func TestLoadRejectsUnsupportedDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SRR_DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db driver")
}

func TestLoadRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SRR_DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SRR_DB_DSN")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	// t.Setenv registers the restore; the variable itself must be absent.
	t.Setenv("SRR_JWT_SECRET", "placeholder")
	os.Unsetenv("SRR_JWT_SECRET")

	_, err := Load()
	require.Error(t, err)
}

func TestStripeEventRetentionClamping(t *testing.T) {
	tests := []struct {
		name  string
		hours int
		want  time.Duration
	}{
		{name: "zero falls back to a day", hours: 0, want: 24 * time.Hour},
		{name: "negative falls back to a day", hours: -3, want: 24 * time.Hour},
		{name: "configured hours", hours: 48, want: 48 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := StripeConfig{EventRetentionHours: tt.hours}
			assert.Equal(t, tt.want, cfg.EventRetention())
		})
	}
}

func TestStripePriceIDFor(t *testing.T) {
	cfg := StripeConfig{MonthlyPriceID: "price_monthly"}

	tests := []struct {
		name             string
		subscriptionType string
		wantID           string
		wantOK           bool
	}{
		{name: "configured monthly", subscriptionType: "monthly", wantID: "price_monthly", wantOK: true},
		{name: "unconfigured yearly", subscriptionType: "yearly", wantID: "", wantOK: false},
		{name: "unknown type", subscriptionType: "weekly", wantID: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := cfg.PriceIDFor(tt.subscriptionType)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStripeEnvironmentNormalized(t *testing.T) {
	assert.Equal(t, "test", StripeConfig{}.Environment())
	assert.Equal(t, "live", StripeConfig{Env: " Live "}.Environment())
}

func TestJWTSessionTTLClamping(t *testing.T) {
	assert.Equal(t, time.Duration(0), JWTConfig{SessionTTLMinutes: -1}.SessionTTL())
	assert.Equal(t, 30*time.Minute, JWTConfig{SessionTTLMinutes: 30}.SessionTTL())
}
