package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_UAE(t *testing.T) {
	c := NewCalculator()
	cost := c.Calculate(Input{Country: "UAE", WeightKg: 2, Quantity: 1, Length: 10, Width: 10, Height: 10, Unit: "cm"})
	assert.Equal(t, 1500.0, cost)
}

func TestCalculate_UnknownCountryUsesFallback(t *testing.T) {
	c := NewCalculator()
	for _, country := range []string{"FRANCE", "", "atlantis"} {
		q := c.Quote(Input{Country: country, WeightKg: 1, Quantity: 1})
		assert.Equal(t, FallbackRate, q.Rate, country)
		assert.Equal(t, 1500.0+400.0, q.Cost, country)
	}
}

func TestQuote_VolumetricBeatsActual(t *testing.T) {
	c := NewCalculator()
	q := c.Quote(Input{Country: " usa ", WeightKg: 1, Quantity: 2, Length: 1, Width: 0.5, Height: 0.25, Unit: " M "})

	assert.InDelta(t, 2.0, q.ActualWeight, 1e-9)
	assert.InDelta(t, 50.0, q.VolumetricWeight, 1e-9)
	assert.Equal(t, 50.0, q.ChargeableWeight)
	assert.Equal(t, 1500.0+350.0*50, q.Cost)
}

func TestQuote_ChargeableRoundsUp(t *testing.T) {
	c := NewCalculator()
	q := c.Quote(Input{Country: "SINGAPORE", WeightKg: 2.1, Quantity: 1})
	assert.Equal(t, 3.0, q.ChargeableWeight)
	assert.Equal(t, 900.0+200.0*3, q.Cost)
}

func TestConvertToCm(t *testing.T) {
	cases := map[string]float64{
		"cm": 12,
		"m":  1200,
		"mm": 1.2,
		"ft": 12 * 30.48,
		"in": 12 * 2.54,
		"IN": 12 * 2.54,
		"yd": 12,
		"":   12,
	}
	for unit, want := range cases {
		assert.InDelta(t, want, ConvertToCm(12, unit), 1e-9, unit)
	}
}

func TestNewCalculatorWithRates(t *testing.T) {
	c := NewCalculatorWithRates(map[string]Rate{"india": {Base: 100, PerKg: 10}}, Rate{Base: 1, PerKg: 1})
	assert.Equal(t, Rate{Base: 100, PerKg: 10}, c.RateFor("INDIA"))
	assert.Equal(t, Rate{Base: 1, PerKg: 1}, c.RateFor("USA"))
}
