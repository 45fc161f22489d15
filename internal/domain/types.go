package domain

import (
	"time"

	"github.com/Victor-armando18/service-clearance/pkg/clearance"
)

// --- Estruturas persistidas ---

// ShipmentRecord é o registo completo de um envio, tal como o store o guarda.
type ShipmentRecord struct {
	clearance.State
	Sender    Party     `json:"sender"`
	Receiver  Party     `json:"receiver"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country"`
}

type Product struct {
	Description   string  `json:"description"`
	Category      string  `json:"category,omitempty"`
	HSCode        string  `json:"hs_code"`
	SenderHSCode  string  `json:"sender_hs_code,omitempty"` // código declarado antes da validação
	DeclaredValue float64 `json:"declared_value"`
	WeightKg      float64 `json:"weight_kg"`
	Packages      int     `json:"packages"`
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Unit          string  `json:"unit"`
}

// --- Guardas de entrada ---

// GuardPackDefinition define a estrutura de um conjunto de guardas carregado.
type GuardPackDefinition struct {
	Version     string        `json:"version" yaml:"version"`
	Rules       []GuardConfig `json:"rules" yaml:"rules"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

type GuardConfig struct {
	ID           string         `json:"id" yaml:"id"`
	Phase        string         `json:"phase" yaml:"phase"` // só "guards" é avaliado na criação
	Logic        map[string]any `json:"logic" yaml:"logic"`
	ErrorMessage string         `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

type GuardViolation struct {
	RuleID  string `json:"ruleId"`
	Reason  string `json:"reason"`
	Context string `json:"context"`
}

type ExecutionStep struct {
	Phase  string `json:"phase"`
	RuleID string `json:"ruleId"`
	Action string `json:"action"`
}
