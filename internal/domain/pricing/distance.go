package pricing

import (
	"fmt"
	"math"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/shopspring/decimal"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate is finite and within range.
func (c Coordinate) Validate() error {
	if !isFinite(c.Lat) || !isFinite(c.Lng) {
		return domain.NewInvalidGeometryError(fmt.Sprintf("coordinate (%v, %v) is not finite", c.Lat, c.Lng))
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return domain.NewInvalidGeometryError(fmt.Sprintf("coordinate (%v, %v) is out of range", c.Lat, c.Lng))
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(from, to Coordinate) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// TransportCharge computes the rounded distance and the charge for it at ratePerKm.
// The charge is computed from the rounded distance.
func TransportCharge(from, to Coordinate, ratePerKm decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if err := from.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := to.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	distance := Round2(decimal.NewFromFloat(HaversineKm(from, to)))
	if !distance.IsPositive() {
		return decimal.Zero, decimal.Zero, domain.NewInvalidGeometryError("pickup and drop locations resolve to zero distance")
	}
	return distance, Round2(distance.Mul(ratePerKm)), nil
}
