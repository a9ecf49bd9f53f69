package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/logger"
	"alfredoptarigan/smart-ats/internal/models"
)

// BatchEvent is published when a screening batch finishes.
type BatchEvent struct {
	BatchID          uuid.UUID          `json:"batch_id"`
	Status           models.BatchStatus `json:"status"`
	ResumeCount      int                `json:"resume_count"`
	SuccessCount     int                `json:"success_count"`
	BestFilename     string             `json:"best_filename,omitempty"`
	BestMatchPercent string             `json:"best_match_percent,omitempty"`
	Error            string             `json:"error,omitempty"`
	ErrorCode        string             `json:"error_code,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

type BatchNotifier interface {
	Publish(ctx context.Context, event BatchEvent) error
	Close() error
}

type nopNotifier struct{}

// NewNopNotifier returns a notifier that drops every event.
func NewNopNotifier() BatchNotifier {
	return nopNotifier{}
}

func (nopNotifier) Publish(ctx context.Context, event BatchEvent) error { return nil }
func (nopNotifier) Close() error                                        { return nil }

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitNotifier struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewRabbitNotifier dials RabbitMQ and declares the durable topic exchange that
// batch events are published to with routing key batch.<id>.
func NewRabbitNotifier(url, exchange string, log *zap.Logger) (BatchNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	n := newRabbitNotifier(ch, exchange, log)
	n.conn = conn
	return n, nil
}

func newRabbitNotifier(ch amqpChannel, exchange string, log *zap.Logger) *rabbitNotifier {
	return &rabbitNotifier{
		channel:  ch,
		exchange: exchange,
		logger:   logger.OrNop(log),
	}
}

func routingKey(batchID uuid.UUID) string {
	return fmt.Sprintf("batch.%s", batchID)
}

func (n *rabbitNotifier) Publish(ctx context.Context, event BatchEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode batch event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.Publish(
		n.exchange,
		routingKey(event.BatchID),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish batch event: %w", err)
	}

	n.logger.Debug("batch event published",
		zap.String(logger.FieldBatchID, event.BatchID.String()),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (n *rabbitNotifier) Close() error {
	var firstErr error
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
