package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ict-access-backend/internal/logger"
)

// Handler processes a single transition message. Returning an error
// rejects the delivery without requeueing it.
type Handler func(ctx context.Context, msg TransitionMessage) error

// StartConsumer connects to RabbitMQ, declares the given durable queue and
// consumes messages until ctx is cancelled. It runs a reconnect loop with
// exponential backoff so a broker restart does not take the worker down.
func StartConsumer(ctx context.Context, url, queueName string, handler Handler) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("Failed to dial broker, retrying", "error", err, "backoff", backoff.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, queueName, handler); err != nil {
			if errors.Is(err, context.Canceled) {
				_ = conn.Close()
				return err
			}
			logger.Warn("Consume loop ended, reconnecting", "error", err)
		}
		_ = conn.Close()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, handler Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("Failed to set channel QoS", "error", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var msg TransitionMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logger.Error("Failed to decode transition message", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handler(ctx, msg); err != nil {
				logger.Error("Failed to handle transition message", "aggregate_type", msg.AggregateType, "aggregate_id", msg.AggregateID, "error", err)
				// Reject without requeue to avoid tight redelivery loops.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
