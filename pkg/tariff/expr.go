package tariff

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultGstRate applies when a GST expression carries no usable number.
const DefaultGstRate = 18.0

// Taxas de câmbio fixas para a moeda de referência.
var fxRates = map[string]float64{
	"USD": 83,
	"EUR": 90,
	"GBP": 105,
	"IDR": 0.0055,
	"RP":  0.0055,
}

var (
	flatSumPattern  = regexp.MustCompile(`^\d+(\.\d+)?(\+\d+(\.\d+)?)*$`)
	currencyPattern = regexp.MustCompile(`(\d+(\.\d+)?)\s*(EUR|GBP|USD|IDR|RP)/*(KG|TNE)?`)
	tieredPattern   = regexp.MustCompile(`<(\d+)\?(\d+):(\d+)`)
	integerPattern  = regexp.MustCompile(`\d+`)
)

// DutyExpr is one of FlatSum, CurrencyPerWeight or Unrecognized.
type DutyExpr interface {
	dutyExpr()
}

// FlatSum is a "+"-joined list of percentages, e.g. "5+2".
type FlatSum struct {
	Percentages []float64
}

// CurrencyPerWeight is an amount of foreign currency per kilogram or tonne, e.g. "10 EUR/TNE".
type CurrencyPerWeight struct {
	Amount   float64
	Currency string
	Unit     string // "KG", "TNE" ou vazio
}

type Unrecognized struct {
	Raw string
}

func (FlatSum) dutyExpr()           {}
func (CurrencyPerWeight) dutyExpr() {}
func (Unrecognized) dutyExpr()      {}

// GstExpr is one of FlatGst or TieredGst.
type GstExpr interface {
	gstExpr()
}

type FlatGst struct {
	Rate float64
}

// TieredGst selects Low when the declared value is below Threshold, High otherwise.
type TieredGst struct {
	Threshold float64
	Low       float64
	High      float64
}

func (FlatGst) gstExpr()   {}
func (TieredGst) gstExpr() {}

// ParseDuty never fails; text it cannot read becomes Unrecognized.
func ParseDuty(s string) DutyExpr {
	s = strings.ToUpper(strings.TrimSpace(s))

	if flatSumPattern.MatchString(s) {
		parts := strings.Split(s, "+")
		sum := FlatSum{Percentages: make([]float64, 0, len(parts))}
		for _, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return Unrecognized{Raw: s}
			}
			sum.Percentages = append(sum.Percentages, v)
		}
		return sum
	}

	if m := currencyPattern.FindStringSubmatch(s); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return CurrencyPerWeight{Amount: amount, Currency: m[3], Unit: m[4]}
		}
	}
	return Unrecognized{Raw: s}
}

// ParseGst never fails; without a tier or an integer it yields DefaultGstRate.
func ParseGst(s string) GstExpr {
	s = strings.ToUpper(strings.TrimSpace(s))

	if m := tieredPattern.FindStringSubmatch(s); m != nil {
		threshold, err1 := strconv.ParseFloat(m[1], 64)
		low, err2 := strconv.ParseFloat(m[2], 64)
		high, err3 := strconv.ParseFloat(m[3], 64)
		if err1 == nil && err2 == nil && err3 == nil {
			return TieredGst{Threshold: threshold, Low: low, High: high}
		}
	}

	if m := integerPattern.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return FlatGst{Rate: v}
		}
	}
	return FlatGst{Rate: DefaultGstRate}
}

// DutyPercent evaluates e for a shipment; the result is not rounded.
func DutyPercent(e DutyExpr, declaredValue, weightKg float64) float64 {
	switch v := e.(type) {
	case FlatSum:
		total := 0.0
		for _, p := range v.Percentages {
			total += p
		}
		return total
	case CurrencyPerWeight:
		if declaredValue <= 0 {
			return 0
		}
		rate, ok := fxRates[v.Currency]
		if !ok {
			rate = 1
		}
		perKg := v.Amount * rate
		if v.Unit == "TNE" {
			perKg /= 1000
		}
		return perKg * weightKg / declaredValue * 100
	case Unrecognized:
		return 0
	}
	return 0
}

func GstPercent(e GstExpr, declaredValue float64) float64 {
	switch v := e.(type) {
	case TieredGst:
		if declaredValue < v.Threshold {
			return v.Low
		}
		return v.High
	case FlatGst:
		return v.Rate
	}
	return DefaultGstRate
}

// Round rounds half to even at the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
