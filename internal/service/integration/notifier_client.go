package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
)

// NotifierClient publishes notification events for the delivery subsystem
// (email templates, push) that lives outside this service. All publishes are
// best-effort: callers log failures and never roll back their transaction.
type NotifierClient interface {
	PublishEnrollmentCreated(ctx context.Context, event *models.EnrollmentCreatedEvent) error
	PublishStudentReassigned(ctx context.Context, event *models.StudentReassignedEvent) error
	PublishAttemptCompleted(ctx context.Context, event *models.AttemptCompletedEvent) error
	Close() error
}

const (
	routingKeyEnrollmentCreated = "enrollment.created"
	routingKeyStudentReassigned = "student.reassigned"
	routingKeyAttemptCompleted  = "attempt.completed"
)

type notifierClient struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   zerolog.Logger
}

func NewNotifierClient(url, exchange string, logger zerolog.Logger) (NotifierClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
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
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &notifierClient{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (c *notifierClient) PublishEnrollmentCreated(ctx context.Context, event *models.EnrollmentCreatedEvent) error {
	return c.publish(ctx, routingKeyEnrollmentCreated, event)
}

func (c *notifierClient) PublishStudentReassigned(ctx context.Context, event *models.StudentReassignedEvent) error {
	return c.publish(ctx, routingKeyStudentReassigned, event)
}

func (c *notifierClient) PublishAttemptCompleted(ctx context.Context, event *models.AttemptCompletedEvent) error {
	return c.publish(ctx, routingKeyAttemptCompleted, event)
}

func (c *notifierClient) publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info().
		Str("routing_key", routingKey).
		Msg("Notification event published")

	return nil
}

func (c *notifierClient) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
