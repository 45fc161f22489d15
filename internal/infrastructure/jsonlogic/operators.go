package jsonlogic

import (
	"encoding/json"

	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

// Round arredonda metade para par, como o cálculo de direitos.
func Round(args ...any) any {
	if len(args) == 0 {
		return 0.0
	}
	places := 0
	if len(args) > 1 {
		places = int(toFloat64(args[1]))
	}
	return tariff.Round(toFloat64(args[0]), places)
}

// HSDigits counts the digits of an HS code, ignoring dots and spaces.
func HSDigits(args ...any) any {
	if len(args) == 0 {
		return 0.0
	}
	s, _ := args[0].(string)
	return float64(len(tariff.Digits(s)))
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}
