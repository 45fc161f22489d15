package interfaces

import (
	"context"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
	"github.com/Victor-armando18/service-clearance/pkg/shipping"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

// EventInput is the body of an external event. The payment fields are only read
// for events that settle a payment.
type EventInput struct {
	clearance.Input
	OrderID   string `json:"razorpay_order_id,omitempty"`
	PaymentID string `json:"razorpay_payment_id,omitempty"`
	Signature string `json:"razorpay_signature,omitempty"`
}

type TariffQuoteRequest struct {
	Country       string  `json:"country"`
	HSCode        string  `json:"hsCode"`
	DeclaredValue float64 `json:"declaredValue"`
	WeightKg      float64 `json:"weightKg"`
}

type PenaltyQuoteRequest struct {
	Milestone string  `json:"milestone"`
	Base      float64 `json:"base"`
}

// IntakeResult is what CreateShipment returns. Record is nil when a guard tripped.
type IntakeResult struct {
	Record       *domain.ShipmentRecord  `json:"record,omitempty"`
	Violations   []domain.GuardViolation `json:"violations,omitempty"`
	Skipped      []domain.ExecutionStep  `json:"skipped,omitempty"`
	RulesVersion string                  `json:"rulesVersion"`
}

type ShippingCharges struct {
	Quote     shipping.Quote `json:"quote"`
	Shipping  float64        `json:"shipping"`
	Penalty   tariff.Penalty `json:"penalty"`
	Total     float64        `json:"total"`
	Persisted bool           `json:"persisted"`
}

type DutyCharges struct {
	tariff.Charges
	Penalty tariff.Penalty `json:"penalty"`
	Total   float64        `json:"total"`
}

// ClearanceFacade is what the HTTP layer and the CLI drive.
type ClearanceFacade interface {
	CreateShipment(ctx context.Context, in model.Intake) (*IntakeResult, error)
	GetShipment(ctx context.Context, id string) (domain.ShipmentRecord, error)
	HandleEvent(ctx context.Context, id string, ev clearance.Event, in EventInput) (domain.ShipmentRecord, error)
	UpdateDetails(ctx context.Context, id string, ops []byte) (domain.ShipmentRecord, error)

	QuoteTariff(req TariffQuoteRequest) tariff.Charges
	QuoteShipping(in shipping.Input) shipping.Quote
	QuotePenalty(req PenaltyQuoteRequest) tariff.Penalty

	ShippingCharges(ctx context.Context, id string) (ShippingCharges, error)
	DutyCharges(ctx context.Context, id string) (DutyCharges, error)
	CreatePaymentOrder(ctx context.Context, id string, amountMinor int64) (PaymentOrder, error)

	UploadDocument(ctx context.Context, id, name string, data []byte, contentType string) (string, error)
	RemoveDocument(ctx context.Context, id, name string) error
}

type RiskRequest struct {
	HSCode             string   `json:"hsCode"`
	ProductCategory    string   `json:"productCategory"`
	ProductName        string   `json:"productName,omitempty"`
	DestinationCountry string   `json:"destinationCountry"`
	UserDocuments      []string `json:"userProvidedDocuments,omitempty"`
}

// RiskReport is the compliance assessment for one HS code and destination.
// RiskScore is in [0,100] and Confidence in [0,1].
type RiskReport struct {
	HSCode            string   `json:"hsCode"`
	RiskLevel         string   `json:"riskLevel"`
	RiskScore         int      `json:"riskScore"`
	Confidence        float64  `json:"confidence"`
	Summary           string   `json:"summary"`
	RequiredDocuments []string `json:"requiredDocuments"`
	KeyRisks          []string `json:"keyRisks"`
	Recommendations   []string `json:"recommendations"`
	UserDocuments     []string `json:"userProvidedDocuments,omitempty"`
	MissingDocuments  []string `json:"missingDocuments,omitempty"`
	ProductName       string   `json:"productName,omitempty"`
}

// AdvisorFacade answers the best-effort questions; it never fails on upstream errors.
type AdvisorFacade interface {
	SuggestHSCode(ctx context.Context, description, country string) string
	RequiredDocuments(ctx context.Context, hsCode, country string) []string
	AnalyzeRisk(ctx context.Context, req RiskRequest) RiskReport
}

type MonthCount struct {
	Month string `json:"month"` // "Jan-2006"
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates every stored shipment. Rates are percentages
// rounded to two places.
type AnalyticsSummary struct {
	TotalShipments      int            `json:"totalShipments"`
	InProcess           int            `json:"inProcess"`
	ClearanceRate       float64        `json:"clearanceSuccessRate"`
	AvgShippingCost     float64        `json:"avgDutyPaid"`
	AbortedRate         float64        `json:"abortedRate"`
	ShipmentsOverMonths []MonthCount   `json:"shipmentsOverMonths"`
	ShipmentsPerCountry map[string]int `json:"shipmentsPerCountry"`
	StatusDistribution  map[string]int `json:"statusDistribution"`
	AISummary           string         `json:"aiSummary"`
}

type AnalyticsFacade interface {
	Summary(ctx context.Context) (AnalyticsSummary, error)
}
