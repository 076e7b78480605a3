package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange events go to.
const DefaultExchange = "quiz.events"

// Publisher sends quiz notifications.
type Publisher interface {
	PublishSessionCompleted(ctx context.Context, ev SessionCompletedEvent) error
	PublishAchievementUnlocked(ctx context.Context, ev AchievementUnlockedEvent) error
	Close() error
}

// EventPublisher implements Publisher over RabbitMQ.
type EventPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	log      *slog.Logger
}

// NewEventPublisher dials url and declares a durable topic exchange. An
// empty url returns a disabled publisher that drops every event.
func NewEventPublisher(url, exchange string, log *slog.Logger) (*EventPublisher, error) {
	if log == nil {
		log = slog.Default()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if url == "" {
		log.Info("AMQP URL is empty, event publishing is disabled")
		return &EventPublisher{exchange: exchange, log: log}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &EventPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		log:      log,
	}, nil
}

// Enabled reports whether events leave the process.
func (p *EventPublisher) Enabled() bool { return p.enabled }

func (p *EventPublisher) publish(ctx context.Context, routingKey EventType, event any) error {
	if !p.enabled {
		p.log.Debug("event publishing disabled, skipping", "event", routingKey)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,         // exchange
		string(routingKey), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug("published event", "event", routingKey)
	return nil
}

func (p *EventPublisher) PublishSessionCompleted(ctx context.Context, ev SessionCompletedEvent) error {
	return p.publish(ctx, ev.Type, ev)
}

func (p *EventPublisher) PublishAchievementUnlocked(ctx context.Context, ev AchievementUnlockedEvent) error {
	return p.publish(ctx, ev.Type, ev)
}

// Close closes the channel and connection.
func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("close RabbitMQ channel", "err", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close RabbitMQ connection: %w", err)
		}
	}
	return nil
}
