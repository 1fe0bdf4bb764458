package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// GarlandCategory marks items that are made to order.
	GarlandCategory = "garland"
	// GarlandLeadTime is the minimum notice for a garland delivery.
	GarlandLeadTime = 24 * time.Hour
	// WeightPlaces is the precision kept for item quantities.
	WeightPlaces = 3
)

// deliveryTimeLayouts are tried in order; layouts without a zone are read as UTC.
var deliveryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ItemInput is the caller-supplied description of an order line.
type ItemInput struct {
	ProductName string
	Category    string
	UnitPrice   decimal.Decimal
	Weight      decimal.Decimal
	ImageURL    string
	DeliveryAt  string
}

// GarlandSchedule tracks the requested delivery of a garland line.
type GarlandSchedule struct {
	DeliveryAt     time.Time
	ReminderSent   bool
	LastReminderAt *time.Time
}

// Item is an order line. TotalPrice is fixed at creation.
type Item struct {
	ID          uuid.UUID
	ProductName string
	Category    string
	UnitPrice   decimal.Decimal
	Weight      decimal.Decimal
	TotalPrice  decimal.Decimal
	ImageURL    string
	Garland     *GarlandSchedule
}

// IsGarland reports whether a product needs a garland lead time.
func IsGarland(productName, category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), GarlandCategory) ||
		strings.Contains(strings.ToLower(productName), GarlandCategory)
}

// ParseDeliveryTime parses a requested delivery time.
func ParseDeliveryTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range deliveryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised delivery time %q", s)
}

func newItem(in ItemInput, now time.Time) (Item, error) {
	if strings.TrimSpace(in.ProductName) == "" {
		return Item{}, domain.NewValidationError("product name is required")
	}
	// Same scale as the stored columns.
	unitPrice := pricing.Round2(in.UnitPrice)
	weight := in.Weight.Round(WeightPlaces)
	if unitPrice.IsNegative() {
		return Item{}, domain.NewValidationError(fmt.Sprintf("unit price of %s cannot be negative", in.ProductName))
	}
	if !weight.IsPositive() {
		return Item{}, domain.NewValidationError(fmt.Sprintf("quantity of %s must be positive", in.ProductName))
	}

	item := Item{
		ID:          uuid.New(),
		ProductName: in.ProductName,
		Category:    in.Category,
		UnitPrice:   unitPrice,
		Weight:      weight,
		TotalPrice:  pricing.Round2(unitPrice.Mul(weight)),
		ImageURL:    in.ImageURL,
	}

	if IsGarland(in.ProductName, in.Category) {
		if strings.TrimSpace(in.DeliveryAt) == "" {
			return Item{}, domain.NewInvalidLeadTimeError(fmt.Sprintf("%s needs a delivery time", in.ProductName))
		}
		deliveryAt, err := ParseDeliveryTime(in.DeliveryAt)
		if err != nil {
			return Item{}, domain.NewInvalidLeadTimeError(err.Error())
		}
		if deliveryAt.Before(now.Add(GarlandLeadTime)) {
			return Item{}, domain.NewInvalidLeadTimeError(
				fmt.Sprintf("%s must be ordered at least 24 hours before delivery", in.ProductName))
		}
		item.Garland = &GarlandSchedule{DeliveryAt: deliveryAt}
	}
	return item, nil
}

// GarlandReminder is a due garland delivery joined with what a reminder needs.
type GarlandReminder struct {
	OrderID       uuid.UUID
	OrderNumber   string
	ItemID        uuid.UUID
	UserID        uuid.UUID
	CustomerEmail string
	CustomerName  string
	ProductName   string
	DeliveryAt    time.Time
}
