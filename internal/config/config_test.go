package config

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "main-hall", cfg.HallID)
	assert.Equal(t, "marketplace", cfg.DBConfig.DBName)
	assert.True(t, cfg.Pricing.TransportRatePerKm.Equal(decimal.NewFromInt(15)))
	assert.True(t, cfg.Pricing.PartyHall.BaseCharge.Equal(decimal.NewFromInt(5000)))
	assert.True(t, cfg.Pricing.PartyHall.TeaPerPerson.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, uuid.Nil, cfg.Admin.UserID)
}

func TestLoad_Overrides(t *testing.T) {
	adminID := uuid.New()
	t.Setenv("MARKET_SERVICE_PORT", "9000")
	t.Setenv("MARKET_TRANSPORT_RATE_PER_KM", "12.5")
	t.Setenv("MARKET_HALL_CAKE_UNIT", "650")
	t.Setenv("MARKET_ADMIN_USER_ID", adminID.String())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.True(t, cfg.Pricing.TransportRatePerKm.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, cfg.Pricing.PartyHall.CakeUnit.Equal(decimal.NewFromInt(650)))
	assert.Equal(t, adminID, cfg.Admin.UserID)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Run("rate", func(t *testing.T) {
		t.Setenv("MARKET_TRANSPORT_RATE_PER_KM", "fast")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("negative tariff", func(t *testing.T) {
		t.Setenv("MARKET_HALL_BASE_CHARGE", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("admin id", func(t *testing.T) {
		t.Setenv("MARKET_ADMIN_USER_ID", "not-a-uuid")
		_, err := Load()
		assert.Error(t, err)
	})
}
