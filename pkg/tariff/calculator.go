package tariff

import "sync/atomic"

// Rates are the duty and GST percentages for a shipment, rounded to two places.
// Matched is false when no rule covered the shipment; the rates are then zero,
// which callers cannot tell apart from a duty-exempt rule without the flag.
type Rates struct {
	DutyPercent float64 `json:"dutyPercent"`
	GstPercent  float64 `json:"gstPercent"`
	Matched     bool    `json:"matched"`
}

// Charges are the money amounts derived from Rates.
type Charges struct {
	Rates
	Duty         float64 `json:"duty"`
	Gst          float64 `json:"gst"`
	TotalPayable float64 `json:"totalPayable"`
	Rule         *Rule   `json:"rule,omitempty"`
}

// Calculator is safe for concurrent use. Replace swaps the whole RuleSet, so a
// computation always sees one table.
type Calculator struct {
	rules atomic.Pointer[RuleSet]
}

func NewCalculator(rules RuleSet) *Calculator {
	c := &Calculator{}
	c.rules.Store(&rules)
	return c
}

// Replace installs a freshly loaded table.
func (c *Calculator) Replace(rules RuleSet) {
	c.rules.Store(&rules)
}

// Rules returns the active table.
func (c *Calculator) Rules() RuleSet {
	return *c.rules.Load()
}

func (c *Calculator) MatchRule(country, hsCode string) (Rule, bool) {
	return c.Rules().Match(country, hsCode)
}

func (c *Calculator) ComputeDutyAndGst(country, hsCode string, declaredValue, weightKg float64) Rates {
	rule, ok := c.Rules().Match(country, hsCode)
	if !ok {
		return Rates{}
	}
	return ratesFor(rule, declaredValue, weightKg)
}

// ComputeCharges adds duty = value*duty% and gst = (value+duty)*gst%, both rounded
// to two places.
func (c *Calculator) ComputeCharges(country, hsCode string, declaredValue, weightKg float64) Charges {
	rule, ok := c.Rules().Match(country, hsCode)
	if !ok {
		return Charges{}
	}
	rates := ratesFor(rule, declaredValue, weightKg)
	duty := Round(declaredValue*rates.DutyPercent/100, 2)
	gst := Round((declaredValue+duty)*rates.GstPercent/100, 2)
	return Charges{
		Rates:        rates,
		Duty:         duty,
		Gst:          gst,
		TotalPayable: Round(duty+gst, 2),
		Rule:         &rule,
	}
}

func ratesFor(rule Rule, declaredValue, weightKg float64) Rates {
	return Rates{
		DutyPercent: Round(DutyPercent(ParseDuty(rule.Duty), declaredValue, weightKg), 2),
		GstPercent:  Round(GstPercent(ParseGst(rule.Gst), declaredValue), 2),
		Matched:     true,
	}
}
