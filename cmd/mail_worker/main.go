package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart_cycle_market/internal/mail/app"
	"smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/pkg/config"
	"smart_cycle_market/pkg/database"
	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MailWorker, config.EnvConfig.MailWorkerLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.MailWorker](config.EnvConfig.MailWorker, config.EnvConfig.MailWorkerYAMLPath)
	queue := cfg.Queue
	if queue == "" {
		queue = domain.QueueName
	}

	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ 連線失敗", zap.Error(err))
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("取得 RabbitMQ Channel 失敗", zap.Error(err))
	}
	defer rabbitChannel.Close()

	if err := database.DeclareDurableQueue(rabbitChannel, queue); err != nil {
		logger.Log.Fatal("Queue Declare failed", zap.String("queue", queue), zap.Error(err))
	}

	var sender app.Sender = app.LogSender{}
	if cfg.Brevo.APIKey != "" {
		sender = app.NewBrevoSender(cfg.Brevo)
	} else {
		logger.Log.Warn("brevo api key missing, mails are logged only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := app.NewConsumer(rabbitChannel, app.NewRenderer(), sender, queue, cfg.RetryDelay)
	if err := consumer.StartConsumer(ctx); err != nil {
		logger.Log.Fatal("mail consumer failed", zap.Error(err))
	}
}
