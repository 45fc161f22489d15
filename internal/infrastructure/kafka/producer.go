package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	skafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of kafka.Writer the producer uses; tests inject a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Event is the envelope every status message is wrapped in.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	ShipmentID string    `json:"shipment_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Producer struct {
	writer Writer
	logger *zap.Logger
	now    func() time.Time
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{}, // mesma chave, mesma partição: ordem por envio
		RequiredAcks: skafka.RequireOne,
	}
	return NewProducerWithWriter(w, logger)
}

func NewProducerWithWriter(w Writer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{writer: w, logger: logger, now: time.Now}
}

// Publish wraps value in an Event keyed by the shipment id. A value that is already
// an Event is sent as is, with an id and timestamp filled in when missing.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	ev, ok := value.(Event)
	if !ok {
		ev = Event{ShipmentID: key, Payload: value}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	if ev.ShipmentID == "" {
		ev.ShipmentID = key
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal kafka value: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(key),
		Value: b,
		Headers: []skafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.logger.Debug("kafka event published", zap.String("event_id", ev.ID), zap.String("type", ev.Type), zap.String("shipment_id", key))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
