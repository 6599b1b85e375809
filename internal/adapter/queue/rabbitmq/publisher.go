package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

type EventPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewEventPublisher connects to RabbitMQ and declares the event exchange.
func NewEventPublisher(url, exchange string, log *zap.Logger) (*EventPublisher, error) {
	var conn *amqp.Connection
	var err error

	// Retry connection up to 10 times with backoff
	maxRetries := 10
	for i := 1; i <= maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			ch, chErr := conn.Channel()
			if chErr == nil {
				if declErr := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); declErr != nil {
					conn.Close()
					return nil, declErr
				}
				return &EventPublisher{
					conn:     conn,
					ch:       ch,
					exchange: exchange,
					log:      log,
				}, nil
			}
			err = chErr
			conn.Close()
		}

		log.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", i),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		// Simple incremental backoff
		time.Sleep(time.Duration(i*2) * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// PublishEvent forwards one lifecycle event. Task events are routed by
// priority so consumers can subscribe to event.task.high only; node events go
// out under event.node.
func (p *EventPublisher) PublishEvent(ctx context.Context, event domain.TaskEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	routingKey := "event.node"
	priority := uint8(0)
	if event.TaskID != "" {
		switch event.Priority {
		case domain.PriorityHigh:
			routingKey = "event.task.high"
		case domain.PriorityLow:
			routingKey = "event.task.low"
		default:
			routingKey = "event.task.normal"
		}
		priority = uint8(event.Priority.Weight())
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange, // Exchange
		routingKey, // Routing key
		false,      // Mandatory
		false,      // Immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Priority:    priority, // RabbitMQ Priority
		})

	if err != nil {
		p.log.Error("Failed to publish event", zap.Error(err))
		return err
	}

	p.log.Debug("Published event to RabbitMQ",
		zap.String("type", string(event.Type)),
		zap.String("task_id", event.TaskID),
		zap.String("key", routingKey))
	return nil
}

// Close shuts down the channel and connection.
func (p *EventPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
