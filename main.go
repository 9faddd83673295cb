package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/websitedesigna/tastygrill/common/auth"
	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/common/logger"
	commonmw "github.com/websitedesigna/tastygrill/common/middleware"
	"github.com/websitedesigna/tastygrill/config"
	"github.com/websitedesigna/tastygrill/controllers"
	"github.com/websitedesigna/tastygrill/database"
	"github.com/websitedesigna/tastygrill/events"
	"github.com/websitedesigna/tastygrill/kafka"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
	"github.com/websitedesigna/tastygrill/repository"
	"github.com/websitedesigna/tastygrill/routes"
	"github.com/websitedesigna/tastygrill/services"
	"github.com/websitedesigna/tastygrill/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	var awsCfg *sdkaws.Config
	if needsAWS(cfg) {
		c, err := awspkg.LoadAWSConfig(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			log.Fatalf("[AWS] load config: %v", err)
		}
		awsCfg = &c
	}

	if cfg.AWSUseSecrets && awsCfg != nil {
		if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(*awsCfg)); err != nil {
			log.Fatalf("[Config] %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[Config] %v", err)
	}

	var shipWriter *awspkg.CloudWatchLogsClient
	if cfg.CloudWatchLogsEnabled && awsCfg != nil {
		shipWriter, err = awspkg.NewCloudWatchLogsClient(ctx, *awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName, cfg.InstanceID)
		if err != nil {
			log.Printf("[CloudWatch] log shipping disabled: %v", err)
			shipWriter = nil
		}
	}
	var zlog *zap.Logger
	if shipWriter != nil {
		zlog, err = logger.Initialize(cfg.Env, shipWriter)
	} else {
		zlog, err = logger.Initialize(cfg.Env, nil)
	}
	if err != nil {
		log.Fatalf("[Logger] %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zlog = zlog.With(zap.String("service", cfg.ServiceName), zap.String("instance", cfg.InstanceID))

	var metrics *awspkg.MetricsClient
	if awsCfg != nil {
		metrics = awspkg.NewMetricsClient(*awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	}

	db, err := database.Connect(cfg.DSN(), zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	if cfg.SeedDemoData {
		if seeded, err := database.SeedMenu(ctx, db); err != nil {
			zlog.Warn("menu seed failed", zap.Error(err))
		} else if seeded {
			zlog.Info("demo menu seeded")
		}
	}
	if cfg.StaffEmail != "" && cfg.StaffPassword != "" {
		if created, err := database.EnsureStaffUser(ctx, db, cfg.StaffEmail, cfg.StaffPassword); err != nil {
			zlog.Warn("staff user setup failed", zap.Error(err))
		} else if created {
			zlog.Info("staff user created", zap.String("email", cfg.StaffEmail))
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("postgres pool unavailable", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		zlog.Fatal("token manager", zap.Error(err))
	}

	// Repositories
	orderRepo := repository.NewGormOrderRepository(db)
	menuRepo := repository.NewGormMenuRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	cartRepo := repository.NewRedisCartRepository(rdb, cfg.CartTTL)
	checkoutStore := repository.NewRedisCheckoutStore(rdb, cfg.CheckoutAttemptTTL, cfg.IdempotencyTTL)
	denylist := repository.NewRedisTokenDenylist(rdb)
	menuCache := repository.NewRedisMenuCache(rdb, cfg.MenuCacheTTL)

	// Order events: local bus plus optional Kafka and SNS fan-out.
	bus := events.NewBus(64, zlog)
	var sinks []events.Sink
	var producer *kafka.Producer
	if cfg.KafkaEnabled() {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		sinks = append(sinks, producer)
	}
	var snsClient *awspkg.SNSClient
	if awsCfg != nil && (cfg.OrderEventsTopicArn != "" || cfg.NotificationsTopicArn != "") {
		snsClient = awspkg.NewSNSClient(*awsCfg)
	}
	if snsClient != nil && cfg.OrderEventsTopicArn != "" {
		sinks = append(sinks, events.NewSNSSink(snsClient, cfg.OrderEventsTopicArn))
	}
	fanout := events.NewFanout(bus, cfg.InstanceID, zlog, sinks...)
	relay := events.NewRelay(bus, cfg.InstanceID, metrics, zlog)

	notifiers := services.MultiNotifier{services.NewLogNotifier(zlog)}
	var snsNotifier *services.SNSNotifier
	if snsClient != nil && cfg.NotificationsTopicArn != "" {
		snsNotifier = services.NewSNSNotifier(snsClient, cfg.NotificationsTopicArn, zlog)
		notifiers = append(notifiers, snsNotifier)
	}

	gateway, err := newPaymentGateway(cfg, zlog)
	if err != nil {
		zlog.Fatal("payment gateway", zap.Error(err))
	}

	// Services
	cartStore := services.NewCartStore(cartRepo, menuRepo, zlog)
	checkoutService := services.NewCheckoutService(cartStore, checkoutStore, orderRepo, gateway, fanout, notifiers, metrics,
		services.CheckoutConfig{Currency: cfg.Currency, LockTTL: cfg.CheckoutLockTTL}, zlog)
	orderService := services.NewOrderService(orderRepo, fanout, metrics, zlog)
	dashboardService := services.NewDashboardService(orderRepo, cfg.DashboardPageSize, zlog)
	authService := services.NewAuthService(userRepo, tokens, denylist, zlog)
	menuService := services.NewMenuService(menuRepo, menuCache, metrics, zlog)

	hub := ws.NewDashboardHub(dashboardService, bus, cfg.DashboardPollInterval, cfg.AllowedOrigins, zlog)
	hub.Start(ctx)

	// Inbound events from other instances.
	var consumer *kafka.Consumer
	if cfg.KafkaEnabled() {
		consumer = kafka.NewConsumer(cfg.KafkaBrokers, cfg.OrderEventsTopic, cfg.KafkaGroupID, zlog)
		go func() {
			if err := consumer.Run(ctx, relay.Deliver); err != nil {
				zlog.Error("kafka consumer stopped", zap.Error(err))
			}
		}()
	}
	if awsCfg != nil && cfg.OrderEventsQueueURL != "" {
		sqsConsumer := awspkg.NewSQSConsumer(*awsCfg, cfg.OrderEventsQueueURL, zlog)
		go func() {
			if err := sqsConsumer.StartPolling(ctx, relay.HandleSQSMessage); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("sqs consumer stopped", zap.Error(err))
			}
		}()
	}

	limiter := commonmw.NewRateLimiter(rate.Every(6*time.Second), 10, 10*time.Minute)
	go limiter.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		commonmw.RequestLogger(zlog),
		commonmw.SecurityHeaders(),
		commonmw.CORS(cfg.AllowedOrigins),
		commonmw.RequestTimeout(cfg.RequestTimeout),
		commonmw.Metrics(metrics, cfg.ServiceName),
		apperrors.ErrorMiddleware(),
	)

	routes.RegisterRoutes(r, routes.Handlers{
		Auth:      controllers.NewAuthController(authService),
		Menu:      controllers.NewMenuController(menuService),
		Cart:      controllers.NewCartController(cartStore),
		Checkout:  controllers.NewCheckoutController(checkoutService),
		Orders:    controllers.NewOrderController(orderService),
		Dashboard: controllers.NewDashboardController(dashboardService, orderService),
		Health: controllers.NewHealthController(map[string]controllers.HealthCheck{
			"postgres": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Live:          hub.HandleWebSocket,
		Authenticator: authService,
		AuthLimit:     limiter.Limit(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("payments", cfg.PaymentProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	fanout.Wait()
	if snsNotifier != nil {
		snsNotifier.Wait()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			zlog.Warn("kafka producer close", zap.Error(err))
		}
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			zlog.Warn("kafka consumer close", zap.Error(err))
		}
	}
	zlog.Info("server exited")
}

func needsAWS(cfg *config.Config) bool {
	return cfg.AWSUseSecrets ||
		cfg.CloudWatchEnabled ||
		cfg.CloudWatchLogsEnabled ||
		cfg.OrderEventsTopicArn != "" ||
		cfg.NotificationsTopicArn != "" ||
		cfg.OrderEventsQueueURL != ""
}

func newPaymentGateway(cfg *config.Config, log *zap.Logger) (services.PaymentGateway, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return services.NewStripeGateway(cfg.StripeSecretKey, log), nil
	case "sandbox":
		log.Warn("using sandbox payment gateway; no real payments are taken")
		return services.NewSandboxGateway(), nil
	default:
		return nil, errors.New("unknown payment provider " + cfg.PaymentProvider)
	}
}
