package shipping

import (
	"math"
	"strings"
)

// VolumetricDivisor converts cubic centimetres to kilograms for air freight.
const VolumetricDivisor = 5000.0

type Rate struct {
	Base  float64 `json:"base"`
	PerKg float64 `json:"perKg"`
}

var (
	DefaultRates = map[string]Rate{
		"USA":       {Base: 1500, PerKg: 350},
		"UK":        {Base: 1300, PerKg: 300},
		"UAE":       {Base: 1000, PerKg: 250},
		"GERMANY":   {Base: 1400, PerKg: 320},
		"SINGAPORE": {Base: 900, PerKg: 200},
	}
	FallbackRate = Rate{Base: 1500, PerKg: 400}
)

type Input struct {
	Country  string  `json:"country"`
	Quantity int     `json:"quantity"`
	WeightKg float64 `json:"weightKg"`
	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Unit     string  `json:"unit"`
}

// Quote is the breakdown behind a shipping cost.
type Quote struct {
	ActualWeight     float64 `json:"actualWeight"`
	VolumetricWeight float64 `json:"volumetricWeight"`
	ChargeableWeight float64 `json:"chargeableWeight"`
	Rate             Rate    `json:"rate"`
	Cost             float64 `json:"cost"`
}

// Calculator prices shipments from a per-country rate table. It never mutates
// the table after construction.
type Calculator struct {
	rates    map[string]Rate
	fallback Rate
}

func NewCalculator() *Calculator {
	return NewCalculatorWithRates(DefaultRates, FallbackRate)
}

func NewCalculatorWithRates(rates map[string]Rate, fallback Rate) *Calculator {
	c := &Calculator{rates: make(map[string]Rate, len(rates)), fallback: fallback}
	for country, r := range rates {
		c.rates[strings.ToUpper(strings.TrimSpace(country))] = r
	}
	return c
}

func (c *Calculator) RateFor(country string) Rate {
	if r, ok := c.rates[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return r
	}
	return c.fallback
}

func (c *Calculator) Calculate(in Input) float64 {
	return c.Quote(in).Cost
}

func (c *Calculator) Quote(in Input) Quote {
	rate := c.RateFor(in.Country)
	qty := float64(in.Quantity)

	actual := in.WeightKg * qty
	l := ConvertToCm(in.Length, in.Unit)
	w := ConvertToCm(in.Width, in.Unit)
	h := ConvertToCm(in.Height, in.Unit)
	volumetric := (l * w * h / VolumetricDivisor) * qty

	chargeable := math.Ceil(math.Max(actual, volumetric))
	return Quote{
		ActualWeight:     actual,
		VolumetricWeight: volumetric,
		ChargeableWeight: chargeable,
		Rate:             rate,
		Cost:             rate.Base + rate.PerKg*chargeable,
	}
}

// ConvertToCm treats unknown units as centimetres.
func ConvertToCm(value float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "m":
		return value * 100
	case "mm":
		return value / 10
	case "ft":
		return value * 30.48
	case "in":
		return value * 2.54
	default:
		return value
	}
}
