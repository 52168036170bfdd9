package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/skillstream/internal/application/monitor"
	"github.com/aescanero/skillstream/internal/application/notifications"
	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/aescanero/skillstream/internal/application/uploads"
	"github.com/aescanero/skillstream/internal/config"
	"github.com/aescanero/skillstream/pkg/adapters/backend"
	memoryevents "github.com/aescanero/skillstream/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/skillstream/pkg/adapters/events/redis"
	metricsprom "github.com/aescanero/skillstream/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/skillstream/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/skillstream/pkg/adapters/storage/redis"
	"github.com/aescanero/skillstream/pkg/adapters/transport/sse"
	wstransport "github.com/aescanero/skillstream/pkg/adapters/transport/websocket"
	"github.com/aescanero/skillstream/pkg/api/grpc"
	"github.com/aescanero/skillstream/pkg/api/http"
	"github.com/aescanero/skillstream/pkg/api/websocket"
	"github.com/aescanero/skillstream/pkg/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const (
	eventsGroupPrefix = "skillstream"
	eventsMaxLen      = 1000
)

// runService wires every component and blocks until a shutdown signal
func runService(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting skillstream",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := metricsprom.NewCollector(registry)

	// Initialize adapters
	var (
		eventBus     ports.EventBus
		uploadsStore ports.UploadsStore
		redisClient  *goredis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Redis close error", zap.Error(err))
			}
		}()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		eventBus = redisevents.NewStreamsEventBus(
			redisClient,
			redisevents.InstanceGroup(eventsGroupPrefix),
			fmt.Sprintf("skillstream-%d", os.Getpid()),
			eventsMaxLen,
			logger,
		)
		uploadsStore = redisstorage.NewUploadsStore(redisClient, cfg.Uploads.CacheTTL, logger)
	} else {
		logger.Info("no Redis address configured, using in-memory adapters")
		eventBus = memoryevents.NewInMemoryEventBus()
		uploadsStore = memorystorage.NewUploadsStore(cfg.Uploads.CacheTTL)
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("event bus close error", zap.Error(err))
		}
	}()

	backendClient, err := backend.NewClient(&backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	// Initialize application components
	center := notifications.NewCenter(&notifications.Config{
		TTL:      cfg.Notify.TTL,
		Buffer:   cfg.Notify.Buffer,
		EventBus: eventBus,
		Metrics:  metricsCollector,
		Logger:   logger,
	})

	uploadsSvc := uploads.NewService(&uploads.Config{
		Limit:   cfg.Uploads.RecentLimit,
		Lister:  backendClient,
		Store:   uploadsStore,
		Metrics: metricsCollector,
		Logger:  logger,
	})

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Addr:   cfg.GetGRPCAddr(),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	client := realtime.NewClient(
		newTransport(cfg, logger),
		center,
		uploadsSvc,
		logger,
		realtime.WithMetrics(metricsCollector),
		realtime.WithStateListener(monitor.ServingListener(grpcServer)),
	)

	// Initialize API servers

	healthMonitor := monitor.NewHealthMonitor(&monitor.Config{
		Source:   client,
		Health:   grpcServer,
		Metrics:  metricsCollector,
		Interval: cfg.MonitorInterval,
		Logger:   logger,
	})

	httpServer := http.NewServer(&http.Config{
		Addr:           cfg.GetHTTPAddr(),
		Stream:         client,
		Notifications:  center,
		Uploads:        uploadsSvc,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger,
	})

	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		center.Run(gctx)
		return nil
	})
	g.Go(func() error {
		uploadsSvc.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return wsHandler.Run(gctx)
	})
	g.Go(func() error {
		healthMonitor.Run(gctx)
		return nil
	})
	g.Go(httpServer.Start)
	g.Go(grpcServer.Start)
	g.Go(func() error {
		if err := client.Start(gctx); err != nil {
			return err
		}
		<-client.Done()
		return nil
	})

	// Recent uploads are shown from the start, not only after the first upload event
	uploadsSvc.LoadRecentUploads()

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
		return nil
	})

	logger.Info("skillstream started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.String("grpc_addr", cfg.GetGRPCAddr()),
		zap.String("stream_url", cfg.Stream.URL),
		zap.String("transport", cfg.Stream.Transport))

	if err := g.Wait(); err != nil {
		logger.Error("skillstream stopped with error", zap.Error(err))
		return err
	}

	logger.Info("skillstream shut down complete")
	return nil
}

// newTransport builds the configured stream transport
func newTransport(cfg *config.Config, logger *zap.Logger) ports.Transport {
	if cfg.Stream.Transport == "websocket" {
		return wstransport.NewTransport(&wstransport.Config{
			URL:              cfg.Stream.URL,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			Logger:           logger,
		})
	}

	return sse.NewTransport(&sse.Config{
		URL:              cfg.Stream.URL,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		Logger:           logger,
	})
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
