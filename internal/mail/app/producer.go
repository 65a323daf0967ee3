package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/pkg/database"
	"smart_cycle_market/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// MailQueue accepts mail jobs for asynchronous delivery
type MailQueue interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

// RabbitQueue publishes jobs as persistent json messages on a durable queue
type RabbitQueue struct {
	rabbit    database.RabbitRepo
	queueName string
}

// NewRabbitQueue create RabbitQueue
func NewRabbitQueue(rabbit database.RabbitRepo, queueName string) *RabbitQueue {
	if queueName == "" {
		queueName = domain.QueueName
	}
	return &RabbitQueue{rabbit: rabbit, queueName: queueName}
}

// Enqueue publish job
func (q *RabbitQueue) Enqueue(_ context.Context, job domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode mail job: %w", err)
	}

	err = q.rabbit.Publish("", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         string(job.Kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish mail job: %w", err)
	}

	logger.Log.Debug("mail job queued", zap.String("kind", string(job.Kind)), zap.String("to", job.To))
	return nil
}

// LogQueue used when no broker is configured, jobs are only logged
type LogQueue struct{}

// Enqueue log job
func (LogQueue) Enqueue(_ context.Context, job domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	logger.Log.Info("mail job (no broker)",
		zap.String("kind", string(job.Kind)),
		zap.String("to", job.To),
		zap.String("link", job.Link),
	)
	return nil
}
