package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "smart_cycle_market/docs" // 引入生成的 Swagger 文档
	"smart_cycle_market/internal/api/router"
	chatapp "smart_cycle_market/internal/chat/app"
	chatrepo "smart_cycle_market/internal/chat/repository"
	mailapp "smart_cycle_market/internal/mail/app"
	maildomain "smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/internal/maintenance"
	memberapp "smart_cycle_market/internal/member/app"
	memberdomain "smart_cycle_market/internal/member/domain"
	memberrepo "smart_cycle_market/internal/member/repository"
	productapp "smart_cycle_market/internal/product/app"
	productrepo "smart_cycle_market/internal/product/repository"
	"smart_cycle_market/pkg/config"
	"smart_cycle_market/pkg/database"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/events"
	"smart_cycle_market/pkg/healthcheck"
	"smart_cycle_market/pkg/imagehost"
	"smart_cycle_market/pkg/logger"
	testtool "smart_cycle_market/pkg/test_tool"
	"smart_cycle_market/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MarketService, config.EnvConfig.MarketServiceLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Market](config.EnvConfig.MarketService, config.EnvConfig.MarketServiceYAMLPath)

	// `market_service healthcheck` is the container probe, it asks the running instance
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		err := healthcheck.CheckRemote(context.Background(), "127.0.0.1:"+cfg.GRPCPort, config.EnvConfig.MarketService, 3*time.Second)
		if err != nil {
			logger.Log.Fatal("unhealthy", zap.Error(err))
		}
		return
	}
	if config.EnvConfig.JWTSecret != "" {
		cfg.Token.Secret = config.EnvConfig.JWTSecret
	}
	if cfg.Token.Secret == "" {
		logger.Log.Fatal("jwt secret is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	testtool.StartPprof(cfg.PprofAddr)

	// 1. PostgreSQL: members on pgx, products on gorm
	dsn := database.PostgresDSN(cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database)
	pgConn := database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries", zap.Error(err))
	}
	defer pool.Close()

	gormDB, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm on postgreSQL", zap.Error(err))
	}

	// 2. MongoDB: conversations
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoDB.User, cfg.MongoDB.Password, cfg.MongoDB.Host, cfg.MongoDB.Port)
	mongoDB, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    mongoURI,
		RetryCount:    cfg.MongoDB.RetryCount,
		RetryInterval: time.Duration(cfg.MongoDB.RetryInterval),
	}, cfg.MongoDB.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.Error(err))
	}
	defer mongoDB.Close(context.Background())

	// 3. Redis: refresh sessions and one-time tokens
	masterName, sentinels := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinels, cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis err", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. mail queue, kafka events, image host
	mailQueue, closeMail := newMailQueue(cfg)
	defer closeMail()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	images, err := newImageHost(cfg.ImageHost)
	if err != nil {
		logger.Log.Fatal("image host init failed", zap.Error(err))
	}

	// 5. schema
	memberRepo := memberrepo.NewMemberRepository(pool)
	if err := memberRepo.Migrate(ctx); err != nil {
		logger.Log.Fatal("member schema migrate failed", zap.Error(err))
	}
	productRepo := productrepo.NewProductRepository(gormDB)
	if err := productRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("product schema migrate failed", zap.Error(err))
	}
	convRepo := chatrepo.NewMongoConversationRepository(mongoDB.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("conversation indexes failed", zap.Error(err))
	}

	// 6. usecases
	tokens := token.NewManager(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	memberUC := memberapp.NewMemberUseCase(
		memberRepo,
		memberrepo.NewSessionRepository(redisClient),
		memberrepo.NewOneTimeTokenRepository(database.NewRedisRepository[memberdomain.OneTimeToken](redisClient)),
		tokens,
		mailQueue,
		images,
		memberapp.Options{
			BaseURL:         cfg.BaseURL,
			VerificationTTL: cfg.Token.VerificationTTL,
			ResetTTL:        cfg.Token.ResetTTL,
		},
	)
	directory := memberapp.NewProfileDirectory(memberRepo)
	productUC := productapp.NewProductUseCase(productRepo, images, directory, publisher)

	registry := chatapp.NewChannelRegistry()
	gateway := chatapp.NewMessageGateway(convRepo, registry, publisher)

	// 7. fiber
	app := fiber.New(fiber.Config{
		ErrorHandler: errprocess.ErrorHandler,
		BodyLimit:    20 * 1024 * 1024,
	})
	accessLog, err := os.OpenFile(filepath.Join(config.EnvConfig.MarketServiceLogPath, "access.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Log.Fatal("Failed to open access log", zap.Error(err))
	}
	defer accessLog.Close()
	app.Use(fiber_log.New(fiber_log.Config{
		Output: accessLog,
	}))

	router.RegisterRoutes(app, cfg.CORSOrigin, router.Handlers{
		Member:        memberapp.NewMemberHandler(memberUC),
		IsAuth:        memberapp.IsAuth(memberUC),
		Product:       productapp.NewProductHandler(productUC, cfg.UploadDir),
		Authenticator: chatapp.NewAuthenticator(tokens),
		ChatWebsocket: chatapp.NewChatWebsocketHandler(gateway, registry),
		Conversation:  chatapp.NewConversationHandler(chatapp.NewConversationUseCase(convRepo, directory)),
	})

	// 8. upload staging sweep
	sweeper := maintenance.NewSweeper(cfg.UploadDir, cfg.Cleanup.MaxAge)
	scheduler, err := sweeper.Schedule(cfg.Cleanup.Spec)
	if err != nil {
		logger.Log.Fatal("cleanup schedule invalid", zap.String("spec", cfg.Cleanup.Spec), zap.Error(err))
	}
	scheduler.Start()

	// 9. gRPC health
	health := healthcheck.NewServer(config.EnvConfig.MarketService)
	health.AddProbe("postgres", pool.Ping)
	health.AddProbe("mongo", mongoDB.Ping)
	health.AddProbe("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("Failed to listen Port(%s): ", cfg.GRPCPort), zap.Error(err))
		}
		go func() {
			logger.Log.Info(fmt.Sprintf("health gRPC server listening on : %s", cfg.GRPCPort))
			if err := health.Serve(ctx, lis, 15*time.Second); err != nil {
				logger.Log.Warn("health server stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		<-scheduler.Stop().Done()
		registry.Close()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Warn("fiber shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("market service listening on : %s", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}

// newMailQueue rabbitmq producer, mails are only logged when no broker is configured
func newMailQueue(cfg config.Market) (memberapp.MailQueue, func()) {
	if cfg.RabbitMQ.Host == "" {
		logger.Log.Warn("rabbitmq not configured, mails are logged only")
		return mailapp.LogQueue{}, func() {}
	}

	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ connect failed", zap.Error(err))
	}
	ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("RabbitMQ channel failed", zap.Error(err))
	}
	queue := cfg.MailQueue
	if queue == "" {
		queue = maildomain.QueueName
	}
	if err := database.DeclareDurableQueue(ch, queue); err != nil {
		logger.Log.Fatal("Queue Declare failed", zap.String("queue", queue), zap.Error(err))
	}

	return mailapp.NewRabbitQueue(database.NewRabbitRepository(ch), queue), func() {
		closeQuietly(ch)
		closeQuietly(conn)
	}
}

func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil && err != amqp.ErrClosed {
		logger.Log.Warn("rabbitmq close", zap.Error(err))
	}
}

// newPublisher kafka domain events, disabled without brokers
func newPublisher(cfg config.Market) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Log.Warn("kafka not configured, domain events are dropped")
		return events.Nop{}
	}
	w, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Kafka Writer 建立失敗", zap.Error(err))
	}
	return events.NewKafkaPublisher(w)
}

func newImageHost(c config.ImageHostConfig) (imagehost.Host, error) {
	switch c.Provider {
	case "minio":
		store, err := database.NewMinIOConnection(database.MinIOConnection{
			Endpoint:      c.MinIO.Endpoint,
			User:          c.MinIO.User,
			Password:      c.MinIO.Password,
			BucketName:    c.MinIO.Bucket,
			UseSSL:        c.MinIO.UseSSL,
			RetryCount:    c.MinIO.RetryCount,
			RetryInterval: time.Duration(c.MinIO.RetryInterval),
		})
		if err != nil {
			return nil, err
		}
		return imagehost.NewMinIO(store, c.MinIO.PublicURL, c.Folder), nil
	case "cloudinary", "":
		return imagehost.NewCloudinary(c.CloudinaryURL, c.Folder)
	default:
		return nil, fmt.Errorf("unknown image host provider %q", c.Provider)
	}
}
