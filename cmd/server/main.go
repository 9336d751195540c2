// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/G-alileo/e-visa-application-system/internal/cache"
	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/database"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/handlers"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/middleware"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/router"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg.Log)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("Server stopped with error")
	}
	logrus.Info("Server exited")
}

func configureLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedInitialData(db); err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}

	// The rules file is re-read on every evaluation; fail fast if it is unusable now.
	ruleSource := rules.NewFileSource(cfg.Rules.Path)
	if _, err := ruleSource.Load(); err != nil {
		return fmt.Errorf("failed to load visa rules: %w", err)
	}
	engine := rules.NewEngine(ruleSource)

	healthChecks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	var visaTypeCache cache.VisaTypeCache = cache.NoopVisaTypeCache{}
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		visaTypeCache = cache.NewRedisVisaTypeCache(redisClient, time.Duration(cfg.Redis.CacheTTL)*time.Second)
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var publisher events.Publisher = events.NewLogPublisher(logrus.StandardLogger())
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logrus.WithField("topic", cfg.Kafka.Topic).Info("Publishing application events to Kafka")
	}
	defer publisher.Close()

	var gateway services.PaymentGateway = services.LocalGateway{}
	if cfg.Payment.StripeSecretKey != "" {
		gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.StripeWebhookSecret)
	} else if cfg.Environment == "production" {
		return errors.New("STRIPE_SECRET_KEY is required in production")
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, using the local payment gateway")
	}

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiters := middleware.DefaultLimiters()
	r, err := router.Initialize(router.Dependencies{
		Config:       cfg,
		Store:        repository.NewGormStore(db),
		Rules:        engine,
		Files:        storageService,
		Cache:        visaTypeCache,
		Publisher:    publisher,
		Gateway:      gateway,
		Metrics:      m,
		Limiters:     limiters,
		HealthChecks: healthChecks,
	})
	if err != nil {
		return err
	}

	// Local storage fallback serves uploaded files directly in development.
	if cfg.AWS.AccessKeyID == "" && cfg.Environment != "production" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	servers := []*http.Server{srv}
	if cfg.Metrics.Enabled {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Metrics.Port),
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	limiters.Run(gctx)

	for _, s := range servers {
		s := s
		g.Go(func() error {
			logrus.WithField("addr", s.Addr).Info("Starting HTTP listener")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listener %s: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
		return shutdownErr
	})

	return g.Wait()
}
