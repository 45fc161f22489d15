package model

import (
	"strings"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

// Intake is a shipment as submitted, before it has an id or a clearance log.
type Intake struct {
	Sender   domain.Party   `json:"sender"`
	Receiver domain.Party   `json:"receiver"`
	Product  domain.Product `json:"product"`
	DutyMode string         `json:"dutyMode"`
}

// ToMap is the view the intake guards evaluate. Duty mode is compared upper-cased,
// the way CreateShipment stores it.
func (i Intake) ToMap() map[string]any {
	return map[string]any{
		"sender":   partyMap(i.Sender),
		"receiver": partyMap(i.Receiver),
		"product": map[string]any{
			"description":   i.Product.Description,
			"category":      i.Product.Category,
			"hsCode":        i.Product.HSCode,
			"declaredValue": i.Product.DeclaredValue,
			"weightKg":      i.Product.WeightKg,
			"packages":      i.Product.Packages,
			"length":        i.Product.Length,
			"width":         i.Product.Width,
			"height":        i.Product.Height,
			"unit":          i.Product.Unit,
		},
		"dutyMode": strings.ToUpper(strings.TrimSpace(i.DutyMode)),
	}
}

func partyMap(p domain.Party) map[string]any {
	return map[string]any{
		"name":    p.Name,
		"email":   p.Email,
		"country": p.Country,
	}
}
