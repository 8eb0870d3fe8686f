package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"grove/internal/cache"
	"grove/internal/config"
	"grove/internal/db"
	"grove/internal/events"
	"grove/internal/events/kafka"
	"grove/internal/events/rabbit"
	apihttp "grove/internal/http"
	"grove/internal/logger"
	"grove/internal/outbox"
	"grove/internal/pricing"
	"grove/internal/repo"
	"grove/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Common.ServiceName, cfg.Common.LogLevel)

	taxRate, err := pricing.ParseRate(cfg.Checkout.TaxRate)
	if err != nil {
		log.Fatal().Err(err).Msg("bad CHECKOUT_TAX_RATE")
	}

	// Postgres
	gdb, err := db.Open(cfg.Postgres.DSN, log, cfg.Postgres.SlowQuery)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()

	// Redis (optional)
	var rc *cache.Redis
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, product cache disabled")
			_ = rc.Close()
			rc = nil
		}
		cancel()
	}
	if rc != nil {
		defer rc.Close()
	}

	pub, err := newPublisher(cfg.Broker, log)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.Broker.Kind).Msg("broker connect failed")
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &outbox.Runner{
		Log:          log.With().Str("component", "outbox").Logger(),
		DB:           gdb,
		Pub:          pub,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		BackoffMax:   cfg.Outbox.BackoffMax,
		Wake:         outbox.Listen(ctx, cfg.Postgres.DSN, log),
	}
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		runner.Run(ctx)
	}()

	// services
	userRepo := &repo.Users{DB: gdb}
	reviewRepo := &repo.Reviews{DB: gdb}
	orderRepo := &repo.Orders{DB: gdb}
	products := &service.Products{Repo: &repo.Products{DB: gdb}, Cache: rc, TTL: cfg.Redis.TTL, Log: log}

	gin.SetMode(gin.ReleaseMode)
	router := apihttp.NewRouter(&apihttp.Server{
		Log:      log,
		DB:       gdb,
		Products: products,
		Carts:    &service.Carts{Products: products.Repo},
		Orders:   &service.Orders{Repo: orderRepo, Products: products, Users: userRepo, TaxRate: taxRate, Log: log},
		Reviews:  &service.Reviews{Repo: reviewRepo, Products: products},
		Users:    &service.Users{Repo: userRepo, Reviews: reviewRepo, Log: log},
		Admin:    &service.Admin{Products: products, Users: userRepo, Orders: orderRepo, Log: log},
	}, apihttp.Options{
		ServiceName:   cfg.Common.ServiceName,
		SessionSecret: cfg.HTTP.SessionSecret,
		SessionName:   cfg.HTTP.SessionName,
		SecureCookie:  cfg.HTTP.SecureCookie,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// run server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	<-relayDone
}

// newPublisher builds the outbox sink named by BROKER.
func newPublisher(cfg config.BrokerConfig, log zerolog.Logger) (events.Publisher, error) {
	switch cfg.Kind {
	case "rabbit":
		conn, err := rabbit.Connect(cfg.RabbitURL)
		if err != nil {
			return nil, err
		}
		if err := rabbit.DeclareBase(conn.Ch); err != nil {
			_ = conn.Close()
			return nil, err
		}
		// audit queue sees every event; failed deliveries park in grove.audit.dlq
		if err := rabbit.DeclareQueueWithDLQ(conn.Ch, rabbit.QueueSpec{
			Name:     "grove.audit",
			BindKeys: []string{"orders.*", "reviews.*"},
			DLQKey:   "grove.audit.dlq",
		}); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return rabbit.NewPublisher(conn, rabbit.ExchangeEvents), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Params{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	default:
		return &events.LogPublisher{Log: log.With().Str("component", "events").Logger()}, nil
	}
}
