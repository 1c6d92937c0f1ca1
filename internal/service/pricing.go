package service

import (
	"fmt"
	"math"

	"voltcity/internal/models"
)

// Tariff references accepted by StartCharge.
const (
	TariffFixed  = "fixed"
	TariffPerKWh = "per-kwh"
)

// Quote is the priced outcome of a tariff applied to a station.
type Quote struct {
	AmountMinor    int64
	EnergyQuantity float64
	EnergyUnit     string
}

// PricingStrategy computes the cost of a charge. Pure and swappable so
// dynamic pricing can be dropped in without touching the coordinator.
type PricingStrategy interface {
	Quote(station *models.Station, tariffRef string) (Quote, error)
}

// FixedPricing charges a flat amount for a fixed energy allotment.
type FixedPricing struct {
	AmountMinor int64
	EnergyKWh   float64
}

// Quote implements PricingStrategy.
func (p FixedPricing) Quote(_ *models.Station, tariffRef string) (Quote, error) {
	if tariffRef != "" && tariffRef != TariffFixed {
		return Quote{}, fmt.Errorf("%w: %q", models.ErrUnknownTariff, tariffRef)
	}
	if p.AmountMinor <= 0 {
		return Quote{}, models.ErrInvalidAmount
	}
	return Quote{
		AmountMinor:    p.AmountMinor,
		EnergyQuantity: p.EnergyKWh,
		EnergyUnit:     models.EnergyUnitKWh,
	}, nil
}

// PerKWhPricing charges price-per-kWh times a per-request energy amount.
type PerKWhPricing struct {
	PricePerKWhMinor int64
	EnergyKWh        float64
}

// Quote implements PricingStrategy.
func (p PerKWhPricing) Quote(_ *models.Station, tariffRef string) (Quote, error) {
	if tariffRef != "" && tariffRef != TariffPerKWh {
		return Quote{}, fmt.Errorf("%w: %q", models.ErrUnknownTariff, tariffRef)
	}
	if p.PricePerKWhMinor <= 0 || p.EnergyKWh <= 0 {
		return Quote{}, models.ErrInvalidAmount
	}
	// Round half up on the minor-unit boundary; energy itself may be fractional.
	milliKWh := int64(math.Round(p.EnergyKWh * 1000))
	amount := (p.PricePerKWhMinor*milliKWh + 500) / 1000
	if amount <= 0 {
		return Quote{}, models.ErrInvalidAmount
	}
	return Quote{
		AmountMinor:    amount,
		EnergyQuantity: p.EnergyKWh,
		EnergyUnit:     models.EnergyUnitKWh,
	}, nil
}

// TariffTable routes a tariff reference to its strategy.
type TariffTable struct {
	strategies map[string]PricingStrategy
	fallback   string
}

// NewTariffTable builds the routing table; emptyRef quotes resolve to fallback.
func NewTariffTable(fallback string, strategies map[string]PricingStrategy) *TariffTable {
	return &TariffTable{strategies: strategies, fallback: fallback}
}

// Quote implements PricingStrategy.
func (t *TariffTable) Quote(station *models.Station, tariffRef string) (Quote, error) {
	ref := tariffRef
	if ref == "" {
		ref = t.fallback
	}
	strategy, ok := t.strategies[ref]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", models.ErrUnknownTariff, tariffRef)
	}
	return strategy.Quote(station, ref)
}
