package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"mailsync/internal/domain"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed by broker")

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ publishes categorization jobs and consumes them with manual acks.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	publishMu  sync.Mutex
	exchange   string
	routingKey string
	queueName  string
	logger     *slog.Logger
}

// Handler processes one job. Returning nil acks the delivery.
type Handler func(ctx context.Context, job domain.CategorizationJob) error

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		queueName:  q.Name,
		logger:     logger,
	}, nil
}

func (r *RabbitMQ) Enqueue(ctx context.Context, job domain.CategorizationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	messageID := uuid.NewString()

	r.publishMu.Lock()
	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			MessageId:    messageID,
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	r.publishMu.Unlock()
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}

	r.logger.Debug("enqueued categorization job",
		"candidate_id", job.CandidateID,
		"attempt_id", job.AttemptID,
		"message_id", messageID,
	)

	return nil
}

// Consume runs workers goroutines over a dedicated channel until ctx is
// cancelled or the broker closes the channel.
func (r *RabbitMQ) Consume(ctx context.Context, workers int, handler Handler) error {
	if workers < 1 {
		workers = 1
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(workers, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	consumerTag := "mailsync-" + uuid.NewString()
	deliveries, err := ch.Consume(
		r.queueName,
		consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	r.logger.Info("consuming categorization jobs",
		"queue", r.queueName,
		"workers", workers,
	)

	var (
		wg     sync.WaitGroup
		closed = make(chan struct{}, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						closed <- struct{}{}
						return
					}
					r.handle(ctx, d, handler)
				}
			}
		}()
	}

	wg.Wait()

	if ctx.Err() == nil && len(closed) > 0 {
		return ErrDeliveriesClosed
	}
	return nil
}

func (r *RabbitMQ) handle(ctx context.Context, d amqp.Delivery, handler Handler) {
	var job domain.CategorizationJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.CandidateID == "" {
		r.logger.Error("rejecting malformed job",
			"message_id", d.MessageId,
			"error", err,
		)
		if err := d.Reject(false); err != nil {
			r.logger.Error("reject failed", "message_id", d.MessageId, "error", err)
		}
		return
	}

	handleErr := handler(ctx, job)

	var ackErr error
	switch dispositionFor(handleErr, d.Redelivered) {
	case ack:
		if handleErr != nil {
			r.logger.Info("dropping job",
				"candidate_id", job.CandidateID,
				"reason", handleErr,
			)
		}
		ackErr = d.Ack(false)
	case requeue:
		r.logger.Warn("job failed, requeueing",
			"candidate_id", job.CandidateID,
			"error", handleErr,
		)
		ackErr = d.Nack(false, true)
	case discard:
		r.logger.Error("job failed after redelivery, discarding",
			"candidate_id", job.CandidateID,
			"error", handleErr,
		)
		ackErr = d.Nack(false, false)
	}

	if ackErr != nil {
		r.logger.Error("acknowledge delivery", "message_id", d.MessageId, "error", ackErr)
	}
}

type disposition int

const (
	ack disposition = iota
	requeue
	discard
)

// dispositionFor retries a failed job once. Jobs that cannot make progress
// are acked.
func dispositionFor(err error, redelivered bool) disposition {
	switch {
	case err == nil,
		errors.Is(err, domain.ErrCategorizationInProgress),
		errors.Is(err, domain.ErrCandidateNotFound):
		return ack
	case redelivered:
		return discard
	default:
		return requeue
	}
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
