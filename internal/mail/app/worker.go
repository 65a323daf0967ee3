package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Consumer turns queued mail jobs into sent mails
type Consumer struct {
	rabbitChannel *amqp.Channel
	renderer      *Renderer
	sender        Sender
	queueName     string
	retryDelay    time.Duration
}

// NewConsumer create Consumer
func NewConsumer(rabbitChannel *amqp.Channel, renderer *Renderer, sender Sender, queueName string, retryDelay time.Duration) *Consumer {
	if queueName == "" {
		queueName = domain.QueueName
	}
	return &Consumer{
		rabbitChannel: rabbitChannel,
		renderer:      renderer,
		sender:        sender,
		queueName:     queueName,
		retryDelay:    retryDelay,
	}
}

// StartConsumer consume with manual ack until ctx is done or the channel closes
func (c *Consumer) StartConsumer(ctx context.Context) error {
	if err := c.rabbitChannel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.rabbitChannel.Consume(
		c.queueName,
		"",
		false, // autoAck off
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queueName, err)
	}

	logger.Log.Info("mail consumer started", zap.String("queue", c.queueName))
	c.Run(ctx, msgs)
	return nil
}

// Run handles deliveries one at a time
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("mail delivery channel closed")
				return
			}
			c.handle(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("mail consumer stopped")
			return
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var job domain.Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Log.Error("drop malformed mail job", zap.Error(err))
		c.nack(d, false)
		return
	}

	msg, err := c.renderer.Render(job)
	if err != nil {
		logger.Log.Error("drop unrenderable mail job", zap.String("kind", string(job.Kind)), zap.Error(err))
		c.nack(d, false)
		return
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrMailRejected) {
			logger.Log.Error("drop rejected mail job", zap.String("to", job.To), zap.Error(err))
			c.nack(d, false)
			return
		}
		logger.Log.Error("send mail failed, requeue", zap.String("to", job.To), zap.Error(err))
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
		}
		c.nack(d, true)
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Log.Error("ack mail job", zap.Error(err))
	}
}

func (c *Consumer) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil && !errors.Is(err, amqp.ErrClosed) {
		logger.Log.Error("nack mail job", zap.Bool("requeue", requeue), zap.Error(err))
	}
}
