package pricing

import (
	"math"
	"testing"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryFee(t *testing.T) {
	tests := []struct {
		subtotal string
		want     string
	}{
		{"500", "0"},
		{"500.01", "0"},
		{"499.99", "5"},
		{"450", "5"},
		{"0", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			got := DeliveryFee(decimal.RequireFromString(tt.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestTransportCharge_KnownDistance(t *testing.T) {
	// One degree of latitude along a meridian.
	from := Coordinate{Lat: 0, Lng: 0}
	to := Coordinate{Lat: 1, Lng: 0}

	distance, charge, err := TransportCharge(from, to, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "111.19", distance.StringFixed(2))
	assert.Equal(t, "1111.90", charge.StringFixed(2))
}

func TestTransportCharge_DeterministicAndSymmetric(t *testing.T) {
	a := Coordinate{Lat: 12.9716, Lng: 77.5946}
	b := Coordinate{Lat: 13.0827, Lng: 80.2707}
	rate := decimal.RequireFromString("12.5")

	d1, c1, err := TransportCharge(a, b, rate)
	require.NoError(t, err)
	d2, c2, err := TransportCharge(a, b, rate)
	require.NoError(t, err)
	d3, c3, err := TransportCharge(b, a, rate)
	require.NoError(t, err)

	assert.True(t, d1.Equal(d2))
	assert.True(t, c1.Equal(c2))
	assert.True(t, d1.Sub(d3).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")))
	assert.True(t, c1.Sub(c3).Abs().LessThanOrEqual(decimal.RequireFromString("0.13")))
}

func TestTransportCharge_InvalidGeometry(t *testing.T) {
	rate := decimal.NewFromInt(10)
	cases := map[string][2]Coordinate{
		"nan latitude":   {{Lat: math.NaN(), Lng: 0}, {Lat: 1, Lng: 1}},
		"inf longitude":  {{Lat: 1, Lng: 1}, {Lat: 1, Lng: math.Inf(1)}},
		"out of range":   {{Lat: 91, Lng: 0}, {Lat: 1, Lng: 1}},
		"same point":     {{Lat: 10, Lng: 10}, {Lat: 10, Lng: 10}},
		"rounds to zero": {{Lat: 10, Lng: 10}, {Lat: 10.00001, Lng: 10}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := TransportCharge(c[0], c[1], rate)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindInvalidGeometry))
		})
	}
}

func TestAddOnCharge(t *testing.T) {
	tariff := DefaultPartyHallTariff()

	t.Run("only selected categories count", func(t *testing.T) {
		got := tariff.AddOnCharge(40, 10, 20, 2, []string{"snacks", "tea"})
		// 10*50 + 40*10
		assert.Equal(t, "900.00", got.StringFixed(2))
	})

	t.Run("all categories", func(t *testing.T) {
		got := tariff.AddOnCharge(10, 1, 2, 1, []string{"snacks", "water", "cake", "decoration", "tea"})
		// 50 + 40 + 500 + 1500 + 100
		assert.Equal(t, "2190.00", got.StringFixed(2))
	})

	t.Run("unknown and duplicate names are ignored", func(t *testing.T) {
		got := tariff.AddOnCharge(10, 0, 0, 0, []string{"Decoration", "decoration", "fireworks"})
		assert.Equal(t, "1500.00", got.StringFixed(2))
	})

	t.Run("nothing selected", func(t *testing.T) {
		got := tariff.AddOnCharge(100, 5, 5, 5, nil)
		assert.True(t, got.IsZero())
	})

	t.Run("fractional prices are rounded", func(t *testing.T) {
		custom := tariff
		custom.WaterUnit = decimal.RequireFromString("0.333")
		got := custom.AddOnCharge(1, 0, 3, 0, []string{"water"})
		assert.Equal(t, "1.00", got.StringFixed(2))
	})
}
