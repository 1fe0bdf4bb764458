package transport

import "github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"

// Route is a value object describing the pickup and drop legs of a booking.
type Route struct {
	FromAddress string             `json:"from_address"`
	ToAddress   string             `json:"to_address"`
	From        pricing.Coordinate `json:"from"`
	To          pricing.Coordinate `json:"to"`
}
