package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

func TestIntake_ToMap(t *testing.T) {
	in := Intake{
		Sender:   domain.Party{Name: "Ana", Email: "ana@example.com", Country: "INDIA"},
		Receiver: domain.Party{Name: "Bo", Country: "USA"},
		Product:  domain.Product{HSCode: "8471.30", DeclaredValue: 1200, WeightKg: 2, Packages: 1},
		DutyMode: "DAP",
	}

	m := in.ToMap()
	assert.Equal(t, "DAP", m["dutyMode"])
	assert.Equal(t, "USA", m["receiver"].(map[string]any)["country"])
	assert.Equal(t, 1200.0, m["product"].(map[string]any)["declaredValue"])
	assert.Equal(t, "8471.30", m["product"].(map[string]any)["hsCode"])
}

func TestIntake_ToMapUpperCasesDutyMode(t *testing.T) {
	assert.Equal(t, "DAP", Intake{DutyMode: " dap "}.ToMap()["dutyMode"])
	assert.Equal(t, "", Intake{}.ToMap()["dutyMode"])
}
