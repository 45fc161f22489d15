package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the mailer publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// MailJob is one queued notification; a separate worker delivers it.
type MailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer queues notification emails on a durable queue.
type Mailer struct {
	conn  *amqp.Connection
	chn   Channel
	queue string
}

func Dial(url, queue string) (*Mailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := chn.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Mailer{conn: conn, chn: chn, queue: queue}, nil
}

func NewMailerWithChannel(chn Channel, queue string) *Mailer {
	return &Mailer{chn: chn, queue: queue}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("mail job without recipient")
	}
	body, err := json.Marshal(MailJob{To: to, Subject: subject, HTML: htmlBody})
	if err != nil {
		return err
	}
	return m.chn.PublishWithContext(ctx,
		"",      // exchange por omissão
		m.queue, // routing key = nome da fila
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (m *Mailer) Close() error {
	if err := m.chn.Close(); err != nil {
		return err
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
