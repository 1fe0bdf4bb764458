package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Add-on categories a party-hall customer can select.
const (
	AddOnSnacks     = "snacks"
	AddOnWater      = "water"
	AddOnCake       = "cake"
	AddOnDecoration = "decoration"
	AddOnTea        = "tea"
)

// PartyHallTariff holds the hall base charge and add-on unit prices.
type PartyHallTariff struct {
	BaseCharge     decimal.Decimal
	SnacksUnit     decimal.Decimal
	WaterUnit      decimal.Decimal
	CakeUnit       decimal.Decimal
	DecorationFlat decimal.Decimal
	TeaPerPerson   decimal.Decimal
}

// DefaultPartyHallTariff returns the tariff used when none is configured.
func DefaultPartyHallTariff() PartyHallTariff {
	return PartyHallTariff{
		BaseCharge:     decimal.NewFromInt(5000),
		SnacksUnit:     decimal.NewFromInt(50),
		WaterUnit:      decimal.NewFromInt(20),
		CakeUnit:       decimal.NewFromInt(500),
		DecorationFlat: decimal.NewFromInt(1500),
		TeaPerPerson:   decimal.NewFromInt(10),
	}
}

// AddOnCharge sums the selected add-on categories. Names are matched
// case-insensitively, duplicates count once and unknown names are ignored.
func (t PartyHallTariff) AddOnCharge(personCount, snacks, water, cake int, selected []string) decimal.Decimal {
	total := decimal.Zero
	for name := range NormalizeAddOns(selected) {
		switch name {
		case AddOnSnacks:
			total = total.Add(t.SnacksUnit.Mul(decimal.NewFromInt(int64(snacks))))
		case AddOnWater:
			total = total.Add(t.WaterUnit.Mul(decimal.NewFromInt(int64(water))))
		case AddOnCake:
			total = total.Add(t.CakeUnit.Mul(decimal.NewFromInt(int64(cake))))
		case AddOnDecoration:
			total = total.Add(t.DecorationFlat)
		case AddOnTea:
			total = total.Add(t.TeaPerPerson.Mul(decimal.NewFromInt(int64(personCount))))
		}
	}
	return Round2(total)
}

// NormalizeAddOns lower-cases and de-duplicates add-on names, keeping only known ones.
func NormalizeAddOns(selected []string) map[string]struct{} {
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		name := strings.ToLower(strings.TrimSpace(s))
		switch name {
		case AddOnSnacks, AddOnWater, AddOnCake, AddOnDecoration, AddOnTea:
			set[name] = struct{}{}
		}
	}
	return set
}
