/**
 * @description
 * This package provides a simple producer for publishing assistant events to
 * RabbitMQ: one event when a confirmed transfer executes, one when a call
 * ends. Downstream consumers (notifications, analytics) subscribe to these.
 *
 * The producer degrades to a logging no-op when the broker is unavailable at
 * startup, so the voice channel keeps working without it.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// TransferExecutedEvent is published after the ledger completes a transfer.
type TransferExecutedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id,omitempty"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	RecipientName string    `json:"recipient_name"`
	RecipientIBAN string    `json:"recipient_iban"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// CallEndedEvent is published when a call terminates, whatever the reason.
type CallEndedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"` // e.g. 'goodbye', 'auth_failed'
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	PublishTransferExecutedEvent(ctx context.Context, event TransferExecutedEvent) error
	PublishCallEndedEvent(ctx context.Context, event CallEndedEvent) error
	Close()
}

// Routing keys used by the assistant.
const (
	TransferExecutedRoutingKey = "assistant.transfer.executed"
	CallEndedRoutingKey        = "assistant.call.ended"
)

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable at startup.
type EventProducerFallback struct {
	Logger *slog.Logger
}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.Logger != nil {
		p.Logger.Warn("publish skipped, rabbitmq unavailable", "exchange", exchange, "routing_key", routingKey)
	}
	return nil
}

func (p *EventProducerFallback) PublishTransferExecutedEvent(ctx context.Context, event TransferExecutedEvent) error {
	return p.Publish(ctx, "", TransferExecutedRoutingKey, event)
}

func (p *EventProducerFallback) PublishCallEndedEvent(ctx context.Context, event CallEndedEvent) error {
	return p.Publish(ctx, "", CallEndedRoutingKey, event)
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from the first occurrence of amqp.
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial timeout so startup does not hang indefinitely.
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish marshals the body as JSON and publishes it to the given exchange
// and routing key. The queue is declared idempotently when publishing to the
// default exchange.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	if exchange == "" {
		if _, err := p.channel.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			return err
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(publishCtx, exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
}

// PublishTransferExecutedEvent publishes the transfer-executed event.
func (p *EventProducer) PublishTransferExecutedEvent(ctx context.Context, event TransferExecutedEvent) error {
	return p.Publish(ctx, "", TransferExecutedRoutingKey, event)
}

// PublishCallEndedEvent publishes the call-ended event.
func (p *EventProducer) PublishCallEndedEvent(ctx context.Context, event CallEndedEvent) error {
	return p.Publish(ctx, "", CallEndedRoutingKey, event)
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
