package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/engine"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/diff"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/kafka"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/logging"
	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/internal/usecase/runengine"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
	"github.com/Victor-armando18/service-clearance/pkg/shipping"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

const (
	EventShipmentCreated = "shipment.created"
	EventStatusChanged   = "shipment.status_changed"
	EventChargesUpdated  = "shipment.charges_updated"
)

// Eventos que liquidam um pagamento e exigem assinatura do gateway.
var signedEvents = map[clearance.Event]bool{
	clearance.EventPaymentVerified:     true,
	clearance.EventDutyPaymentVerified: true,
	clearance.EventChargesPaid:         true,
}

// DefaultSideEffectTimeout bounds each publish and mail call made after a write.
const DefaultSideEffectTimeout = 5 * time.Second

// ServiceConfig wires the orchestrator. Documents, Payments, Mailer and Events are
// optional; a nil port turns the matching side effect off. Without Payments, events
// that settle a payment are refused unless AllowUnsignedPayments is set.
type ServiceConfig struct {
	Store         interfaces.ShipmentStore
	Guards        interfaces.GuardPackLoader
	GuardsVersion string
	GuardExecutor engine.GuardExecutor
	Tariff        *tariff.Calculator
	Shipping      *shipping.Calculator
	Documents     interfaces.DocumentStore
	Payments      interfaces.PaymentGateway
	Mailer        interfaces.Mailer
	Events        interfaces.EventPublisher
	Currency      string
	Logger        *zap.Logger
	Now           func() time.Time

	SideEffectTimeout     time.Duration
	AllowUnsignedPayments bool
}

type ClearanceService struct {
	store         interfaces.ShipmentStore
	guards        interfaces.GuardPackLoader
	guardsVersion string
	intake        *runengine.UseCase
	tariff        *tariff.Calculator
	shipping      *shipping.Calculator
	documents     interfaces.DocumentStore
	payments      interfaces.PaymentGateway
	mailer        interfaces.Mailer
	events        interfaces.EventPublisher
	currency      string
	differ        *diff.Differ
	logger        *zap.Logger
	now           func() time.Time

	sideEffectTimeout time.Duration
	allowUnsigned     bool
}

var _ interfaces.ClearanceFacade = (*ClearanceService)(nil)

func NewClearanceService(cfg ServiceConfig) *ClearanceService {
	s := &ClearanceService{
		store:         cfg.Store,
		guards:        cfg.Guards,
		guardsVersion: cfg.GuardsVersion,
		intake:        &runengine.UseCase{GuardExecutor: cfg.GuardExecutor},
		tariff:        cfg.Tariff,
		shipping:      cfg.Shipping,
		documents:     cfg.Documents,
		payments:      cfg.Payments,
		mailer:        cfg.Mailer,
		events:        cfg.Events,
		currency:      cfg.Currency,
		differ:        &diff.Differ{},
		logger:        cfg.Logger,
		now:           cfg.Now,

		sideEffectTimeout: cfg.SideEffectTimeout,
		allowUnsigned:     cfg.AllowUnsignedPayments,
	}
	if s.tariff == nil {
		s.tariff = tariff.NewCalculator(tariff.NewRuleSet(nil))
	}
	if s.shipping == nil {
		s.shipping = shipping.NewCalculator()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.guardsVersion == "" {
		s.guardsVersion = "v1"
	}
	if s.sideEffectTimeout <= 0 {
		s.sideEffectTimeout = DefaultSideEffectTimeout
	}
	if s.payments == nil && s.allowUnsigned {
		s.logger.Warn("no payment gateway: payment events are accepted without a signature")
	}
	return s
}

// --- Intake ---

func (s *ClearanceService) CreateShipment(ctx context.Context, in model.Intake) (*interfaces.IntakeResult, error) {
	res := &interfaces.IntakeResult{}

	if s.guards != nil && s.intake.GuardExecutor != nil {
		def, err := s.guards.Load(ctx, s.guardsVersion)
		if err != nil {
			return nil, err
		}
		out, err := s.intake.Run(ctx, in, def)
		if err != nil {
			return nil, err
		}
		res.RulesVersion = out.RulesVersion
		for _, r := range out.Reasons {
			res.Skipped = append(res.Skipped, domain.ExecutionStep{Phase: string(r.Phase), RuleID: r.RuleID, Action: r.Why})
			s.logger.Warn("intake guard skipped", zap.String("rule_id", r.RuleID), zap.String("why", r.Why))
		}
		if out.Blocked() {
			for _, v := range out.Violations {
				res.Violations = append(res.Violations, domain.GuardViolation{RuleID: v.RuleID, Reason: "Violation Detected", Context: v.Message})
			}
			return res, domain.ErrGuardViolation
		}
	}

	mode := clearance.DutyMode(strings.ToUpper(strings.TrimSpace(in.DutyMode)))
	if mode != "" && mode != clearance.DDP && mode != clearance.DAP {
		res.Violations = append(res.Violations, domain.GuardViolation{RuleID: "duty-mode", Reason: "Violation Detected", Context: "unknown duty mode " + in.DutyMode})
		return res, domain.ErrGuardViolation
	}

	now := s.now()
	id := uuid.NewString()
	product := in.Product
	product.SenderHSCode = product.HSCode
	product.HSCode = tariff.Digits(product.HSCode)

	rec := domain.ShipmentRecord{
		State:     clearance.NewState(id, in.Sender.Name, mode, now),
		Sender:    in.Sender,
		Receiver:  in.Receiver,
		Product:   product,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("shipment created", logging.Shipment(id, rec.Status)...)

	s.publish(ctx, EventShipmentCreated, rec, "")
	s.notify(ctx, rec, fmt.Sprintf("Shipment %s created", id))

	res.Record = &rec
	return res, nil
}

func (s *ClearanceService) GetShipment(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	return s.store.Get(ctx, id)
}

// --- Transições ---

// HandleEvent applies an external event to a stored shipment. The write only goes
// through if the status is still the one the event was applied to.
func (s *ClearanceService) HandleEvent(ctx context.Context, id string, ev clearance.Event, in interfaces.EventInput) (domain.ShipmentRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}

	if signedEvents[ev] {
		if err := s.checkSignature(id, ev, in); err != nil {
			return rec, err
		}
	}

	now := s.now()
	next, err := clearance.Apply(rec.State, ev, in.Input, now)
	if err != nil {
		return rec, &domain.OpError{Op: "clearance.event", Kind: domain.KindInvalidTransition, Path: id, Err: fmt.Errorf("%s from %q: %w", ev, rec.Stage(), err)}
	}

	updated := rec
	updated.State = next
	if ev == clearance.EventDocumentsApproved && !rec.SenderLog.Completed(clearance.StagePayment) {
		charges := s.priceShipping(updated, now)
		if !charges.Penalty.Cancelled {
			updated.ShippingCost = charges.Total
		}
	}
	if signedEvents[ev] && in.PaymentID != "" {
		updated.PaymentLog = withPayment(updated.PaymentLog, string(ev), s.paidAmount(ev, rec, now))
	}

	saved, err := s.write(ctx, rec, updated)
	if err != nil {
		return rec, err
	}

	s.logger.Info("shipment transitioned",
		zap.String("shipment_id", id),
		zap.String("event", string(ev)),
		zap.String("from", rec.Status),
		zap.String("status", saved.Status),
		zap.Strings("changed", s.changedFields(rec, saved)),
	)
	s.publish(ctx, EventStatusChanged, saved, string(ev))
	s.notify(ctx, saved, fmt.Sprintf("Shipment %s: %s", id, saved.Stage()))
	return saved, nil
}

// UpdateDetails applies RFC 6902 operations to the party and product sections.
func (s *ClearanceService) UpdateDetails(ctx context.Context, id string, ops []byte) (domain.ShipmentRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.ShipmentRecord{}, err
	}
	if rec.Terminal() {
		return rec, &domain.OpError{Op: "clearance.update", Kind: domain.KindInvalidTransition, Path: id, Err: errors.New("shipment is closed")}
	}
	updated, err := infrastructure.ApplyDetailOps(rec, ops)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return rec, err
		}
		return rec, fmt.Errorf("%w: %v", domain.ErrBadPayload, err)
	}
	updated.State = rec.State
	updated.ID = rec.ID
	updated.CreatedAt = rec.CreatedAt
	updated.Product.HSCode = tariff.Digits(updated.Product.HSCode)

	saved, err := s.write(ctx, rec, updated)
	if err != nil {
		return rec, err
	}
	s.logger.Info("shipment details updated", zap.String("shipment_id", id), zap.Strings("changed", s.changedFields(rec, saved)))
	return saved, nil
}

// --- Cotações ---

func (s *ClearanceService) QuoteTariff(req interfaces.TariffQuoteRequest) tariff.Charges {
	ch := s.tariff.ComputeCharges(req.Country, req.HSCode, req.DeclaredValue, req.WeightKg)
	if !ch.Matched {
		s.logger.Warn("no tariff rule matched", zap.String("country", req.Country), zap.String("hs_code", req.HSCode))
	}
	return ch
}

func (s *ClearanceService) QuoteShipping(in shipping.Input) shipping.Quote {
	return s.shipping.Quote(in)
}

func (s *ClearanceService) QuotePenalty(req interfaces.PenaltyQuoteRequest) tariff.Penalty {
	return tariff.LatePenalty(req.Milestone, s.now(), req.Base)
}

// ShippingCharges prices the stored shipment and persists shipping_cost. A shipment
// past the cancellation window is reported and left untouched.
func (s *ClearanceService) ShippingCharges(ctx context.Context, id string) (interfaces.ShippingCharges, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return interfaces.ShippingCharges{}, err
	}
	ch := s.priceShipping(rec, s.now())
	if ch.Penalty.Cancelled {
		s.logger.Warn("shipment past cancellation window", zap.String("shipment_id", id), zap.Int("days", ch.Penalty.DaysPassed))
		return ch, nil
	}
	if rec.ShippingCost == ch.Total {
		return ch, nil
	}

	updated := rec
	updated.ShippingCost = ch.Total
	if _, err := s.write(ctx, rec, updated); err != nil {
		return ch, err
	}
	ch.Persisted = true
	s.publish(ctx, EventChargesUpdated, updated, "")
	return ch, nil
}

// DutyCharges computes duty and GST for the stored shipment plus the late fine
// counted from its arrival at customs.
func (s *ClearanceService) DutyCharges(ctx context.Context, id string) (interfaces.DutyCharges, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return interfaces.DutyCharges{}, err
	}
	return s.priceDuty(rec, s.now()), nil
}

func (s *ClearanceService) CreatePaymentOrder(ctx context.Context, id string, amountMinor int64) (interfaces.PaymentOrder, error) {
	if s.payments == nil {
		return interfaces.PaymentOrder{}, fmt.Errorf("%w: payment gateway not configured", domain.ErrConfig)
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return interfaces.PaymentOrder{}, err
	}
	if rec.Terminal() {
		return interfaces.PaymentOrder{}, &domain.OpError{Op: "clearance.payment_order", Kind: domain.KindInvalidTransition, Path: id, Err: errors.New("shipment is closed")}
	}
	if amountMinor <= 0 {
		amountMinor = int64(math.Round(rec.ShippingCost * 100))
	}
	order, err := s.payments.CreateOrder(ctx, amountMinor, s.currency, id)
	if err != nil {
		return interfaces.PaymentOrder{}, err
	}
	s.logger.Info("payment order created", zap.String("shipment_id", id), zap.String("order_id", order.ID), zap.Int64("amount", order.Amount))
	return order, nil
}

// --- Documentos ---

func (s *ClearanceService) UploadDocument(ctx context.Context, id, name string, data []byte, contentType string) (string, error) {
	if s.documents == nil {
		return "", fmt.Errorf("%w: document store not configured", domain.ErrConfig)
	}
	key, err := documentKey(id, name)
	if err != nil {
		return "", err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.documents.Put(ctx, key, data, contentType); err != nil {
		return "", err
	}

	// Documento adicional pedido pela alfândega: guarda o caminho no registo.
	for i, doc := range rec.AdditionalDocs {
		if !strings.EqualFold(doc.Name, name) {
			continue
		}
		updated := rec
		updated.AdditionalDocs = append([]clearance.AdditionalDoc(nil), rec.AdditionalDocs...)
		updated.AdditionalDocs[i].Path = key
		if _, err := s.write(ctx, rec, updated); err != nil {
			// O registo não aponta para o objeto: não o deixar órfão.
			if derr := s.documents.Delete(context.WithoutCancel(ctx), key); derr != nil {
				s.logger.Error("failed to remove orphan document", zap.String("shipment_id", id), zap.String("path", key), zap.Error(derr))
			}
			return "", err
		}
		break
	}
	s.logger.Info("document stored", zap.String("shipment_id", id), zap.String("path", key), zap.Int("bytes", len(data)))
	return key, nil
}

func (s *ClearanceService) RemoveDocument(ctx context.Context, id, name string) error {
	if s.documents == nil {
		return fmt.Errorf("%w: document store not configured", domain.ErrConfig)
	}
	key, err := documentKey(id, name)
	if err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.documents.Delete(ctx, key)
}

// --- Auxiliares ---

// checkSignature verifies the gateway signature of an event that settles a payment.
func (s *ClearanceService) checkSignature(id string, ev clearance.Event, in interfaces.EventInput) error {
	if s.payments == nil {
		if s.allowUnsigned {
			s.logger.Warn("payment event accepted without signature", zap.String("shipment_id", id), zap.String("event", string(ev)))
			return nil
		}
		return fmt.Errorf("%w: payment gateway not configured, %s cannot be verified", domain.ErrConfig, ev)
	}
	if !s.payments.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		s.logger.Warn("payment signature rejected", zap.String("shipment_id", id), zap.String("event", string(ev)))
		return fmt.Errorf("shipment %s: %w", id, domain.ErrInvalidSignature)
	}
	return nil
}

// sideEffectContext detaches from the caller, so a cancelled request still gets its
// event out, and bounds the call.
func (s *ClearanceService) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
}

func (s *ClearanceService) write(ctx context.Context, before, after domain.ShipmentRecord) (domain.ShipmentRecord, error) {
	patch, err := infrastructure.CreateRecordPatch(before, after)
	if err != nil {
		return before, err
	}
	return s.store.Patch(ctx, before.ID, before.Status, patch)
}

func (s *ClearanceService) priceShipping(rec domain.ShipmentRecord, now time.Time) interfaces.ShippingCharges {
	qty := rec.Product.Packages
	if qty < 1 {
		qty = 1
	}
	quote := s.shipping.Quote(shipping.Input{
		Country:  rec.Receiver.Country,
		Quantity: qty,
		WeightKg: rec.Product.WeightKg,
		Length:   rec.Product.Length,
		Width:    rec.Product.Width,
		Height:   rec.Product.Height,
		Unit:     rec.Product.Unit,
	})
	base := math.RoundToEven(quote.Cost)
	pen := s.milestonePenalty(rec, clearance.StageDocumentUpload, base, now)
	return interfaces.ShippingCharges{
		Quote:    quote,
		Shipping: base,
		Penalty:  pen,
		Total:    tariff.Round(base+pen.Fine, 2),
	}
}

func (s *ClearanceService) priceDuty(rec domain.ShipmentRecord, now time.Time) interfaces.DutyCharges {
	ch := s.QuoteTariff(interfaces.TariffQuoteRequest{
		Country:       rec.Receiver.Country,
		HSCode:        rec.Product.HSCode,
		DeclaredValue: rec.Product.DeclaredValue,
		WeightKg:      rec.Product.WeightKg,
	})
	out := interfaces.DutyCharges{Charges: ch}
	out.Penalty = s.milestonePenalty(rec, clearance.StageArrivedAtCustoms, ch.Duty+ch.Gst, now)
	out.Total = tariff.Round(ch.Duty+ch.Gst+out.Penalty.Fine, 2)
	return out
}

// milestonePenalty counts days from the first sender entry with title. A missing
// or unstamped entry means no fine.
func (s *ClearanceService) milestonePenalty(rec domain.ShipmentRecord, title string, base float64, now time.Time) tariff.Penalty {
	entry, ok := rec.SenderLog.Find(title)
	if !ok {
		return tariff.Penalty{}
	}
	return tariff.LatePenalty(tariff.MilestoneTimestamp(entry.Date, entry.Time), now, base)
}

func (s *ClearanceService) publish(ctx context.Context, typ string, rec domain.ShipmentRecord, trigger string) {
	if s.events == nil {
		return
	}
	payload := map[string]any{
		"status": rec.Status,
		"stage":  rec.Stage(),
	}
	if trigger != "" {
		payload["event"] = trigger
	}
	if typ == EventChargesUpdated {
		payload["shipping_cost"] = rec.ShippingCost
	}
	ev := kafka.Event{Type: typ, ShipmentID: rec.ID, Payload: payload}
	pctx, cancel := s.sideEffectContext(ctx)
	defer cancel()
	if err := s.events.Publish(pctx, rec.ID, ev); err != nil {
		s.logger.Error("failed to publish shipment event", zap.String("shipment_id", rec.ID), zap.String("type", typ), zap.Error(err))
	}
}

func (s *ClearanceService) notify(ctx context.Context, rec domain.ShipmentRecord, subject string) {
	if s.mailer == nil {
		return
	}
	body, err := renderNotification(rec)
	if err != nil {
		s.logger.Error("failed to render notification", zap.String("shipment_id", rec.ID), zap.Error(err))
		return
	}
	for _, to := range []string{rec.Sender.Email, rec.Receiver.Email} {
		if to == "" {
			continue
		}
		mctx, cancel := s.sideEffectContext(ctx)
		err := s.mailer.Send(mctx, to, subject, body)
		cancel()
		if err != nil {
			s.logger.Error("failed to queue notification", zap.String("shipment_id", rec.ID), zap.Error(err))
		}
	}
}

func (s *ClearanceService) changedFields(before, after domain.ShipmentRecord) []string {
	b, errB := recordMap(before)
	a, errA := recordMap(after)
	if errB != nil || errA != nil {
		return nil
	}
	return s.differ.Fields(b, a)
}

func recordMap(rec domain.ShipmentRecord) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	err = json.Unmarshal(raw, &m)
	return m, err
}

// paidAmount is what a settled payment covered, read from the record before the event.
func (s *ClearanceService) paidAmount(ev clearance.Event, rec domain.ShipmentRecord, now time.Time) float64 {
	switch ev {
	case clearance.EventPaymentVerified:
		return rec.ShippingCost
	case clearance.EventDutyPaymentVerified:
		return s.priceDuty(rec, now).Total
	case clearance.EventChargesPaid:
		var total float64
		for k, v := range rec.PaymentLog {
			if !strings.HasSuffix(k, ".paid") {
				total += v
			}
		}
		return tariff.Round(total, 2)
	}
	return 0
}

func withPayment(log map[string]float64, key string, amount float64) map[string]float64 {
	out := make(map[string]float64, len(log)+1)
	for k, v := range log {
		out[k] = v
	}
	out[key+".paid"] = amount
	return out
}

func documentKey(id, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid document name %q", domain.ErrBadPayload, name)
	}
	return path.Join(id, name), nil
}
