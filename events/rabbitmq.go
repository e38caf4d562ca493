// Package events publishes booking events to RabbitMQ. Failures are logged
// and returned so callers can ignore them without interrupting the request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

const dialTimeout = 5 * time.Second

// Publisher sends each event to the durable queue named after its type,
// through the default exchange.
type Publisher struct {
	url string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, declared: make(map[string]bool)}
}

// channel returns an open channel, dialing again after the broker went away.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return ch, nil
}

// Notify publishes event as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, event models.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[event.Type] {
		if _, err := ch.QueueDeclare(
			event.Type, // name
			true,       // durable
			false,      // autoDelete
			false,      // exclusive
			false,      // noWait
			nil,        // args
		); err != nil {
			return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
		}
		p.declared[event.Type] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.BookingID,
		Type:         event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", event.Type, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	utils.InfoLogger.WithField("event", event.Type).Debug("Event published")
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
