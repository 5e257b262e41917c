package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/config"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/device"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/geo"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/qrcode"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/shortcode"
	mongoStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/postgres"
	redisStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/redis"
	httpTransport "github.com/IgorGrieder/encurtador-qr/internal/transport/http"
	"github.com/IgorGrieder/encurtador-qr/pkg/httpclient"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel, zap.String("component", "api"), zap.String("version", cfg.App.Version)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		shutdownTracer, err = telemetry.InitTracer(cfg.OTel.Endpoint, telemetry.Service{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Env,
			SampleRatio: cfg.OTel.SampleRatio,
		})
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	pgConn, err := db.ConnectPostgres(startupCtx, cfg.Postgres.DSN(), cfg.App.Name+"-api")
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgConn.Close()

	if err := postgresStorage.Migrate(startupCtx, pgConn); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	mongoConn, err := db.ConnectMongo(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.App.Name+"-api")
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoConn.Disconnect() }()

	redisClient, err := redisStorage.New(redisStorage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	linkRepo, err := postgresStorage.NewLinksRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize links repository", zap.Error(err))
	}
	qrRepo, err := postgresStorage.NewQRCodesRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize qr repository", zap.Error(err))
	}
	outboxRepo, err := postgresStorage.NewVisitOutboxRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize outbox repository", zap.Error(err))
	}
	visitRepo, err := postgresStorage.NewVisitsRepository(pgConn, outboxRepo)
	if err != nil {
		logger.Fatal("Failed to initialize visits repository", zap.Error(err))
	}
	userRepo, err := postgresStorage.NewUsersRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize users repository", zap.Error(err))
	}
	statsRepo, err := mongoStorage.NewVisitStatsRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize visit stats repository", zap.Error(err))
	}

	geoClient := httpclient.NewClient(httpclient.Options{
		Name:        "geoplugin",
		Timeout:     cfg.Geo.Timeout,
		MaxRetries:  1,
		MaxFailures: cfg.Geo.MaxFailures,
		OpenTimeout: cfg.Geo.BreakerTimeout,
	})

	linkSvc := links.NewService(links.Deps{
		Links:   linkRepo,
		QRCodes: qrRepo,
		Visits:  visitRepo,
		Stats:   statsRepo,
		Codes:   shortcode.NewGenerator(),
		QR:      qrcode.NewEncoder(256),
		Devices: device.NewDetector(),
		Geo:     geo.NewLocator(geoClient, cfg.Geo.Endpoint, cfg.Geo.Timeout),
	}, links.Options{
		BaseURL:      cfg.Shortener.BaseURL,
		LinkLifetime: cfg.Shortener.LinkLifetime,
	})

	authSvc := auth.NewService(userRepo, redisStorage.NewTokenDenyList(redisClient, "auth:deny"), auth.Options{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	opts := httpTransport.DefaultRouterOptions()
	opts.ServiceName = cfg.App.Name
	opts.CORSOrigins = cfg.Server.CORSOrigins
	opts.Links.RedirectStatus = cfg.Shortener.RedirectStatus
	opts.Links.VisitTimeout = cfg.Shortener.VisitTimeout
	var pendingVisits sync.WaitGroup
	opts.Links.PendingVisits = &pendingVisits
	httputils.TrustProxyHeaders(cfg.Server.TrustProxyHeaders)
	opts.HealthChecks = map[string]httpTransport.HealthCheck{
		"postgres": pgConn.Ping,
		"mongodb":  mongoConn.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	router := httpTransport.NewRouter(httpTransport.Services{
		Links:       linkSvc,
		Auth:        authSvc,
		CreateLimit: redisStorage.NewFixedWindowLimiter(redisClient, "rl:create", time.Minute),
		CreateRate:  cfg.Security.CreateRate.RequestsPerMinute,
	}, opts)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
		if !waitFor(shutdownCtx, &pendingVisits) {
			logger.Warn("Shutdown timed out with visit writes still pending")
		}
		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.App.Env),
		zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}
	<-stopped

	logger.Info("Server stopped gracefully")
}

// waitFor blocks until wg drains or ctx ends, and reports whether it drained.
func waitFor(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
