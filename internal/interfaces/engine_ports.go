package interfaces

import (
	"context"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

// Definimos os erros aqui para que o usecase possa referenciá-los facilmente
var (
	ErrNotFound          = domain.ErrNotFound
	ErrConflict          = domain.ErrConflict
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrInvalidSignature  = domain.ErrInvalidSignature
	ErrGuardViolation    = domain.ErrGuardViolation
	ErrBadPayload        = domain.ErrBadPayload
)

// RuleTableLoader carrega a tabela de direitos (de disco, rede, etc.).
type RuleTableLoader interface {
	LoadRuleTable(ctx context.Context, source string) (tariff.RuleSet, error)
}

// GuardPackLoader carrega as guardas de entrada por versão.
type GuardPackLoader interface {
	Load(ctx context.Context, version string) (*domain.GuardPackDefinition, error)
}

// ShipmentStore persists shipment records. Patch applies a JSON merge patch only
// if the stored status still equals expectedStatus, and fails with ErrConflict
// otherwise. List returns every record, oldest first.
type ShipmentStore interface {
	Create(ctx context.Context, rec domain.ShipmentRecord) error
	Get(ctx context.Context, id string) (domain.ShipmentRecord, error)
	List(ctx context.Context) ([]domain.ShipmentRecord, error)
	Patch(ctx context.Context, id, expectedStatus string, patch []byte) (domain.ShipmentRecord, error)
}

// DocumentStore is object storage for uploaded documents, keyed by path.
type DocumentStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Completer returns a single best-effort answer to a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (PaymentOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}
