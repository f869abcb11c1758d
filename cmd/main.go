package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayanasamuel8/chat-backend/internal/api"
	"github.com/ayanasamuel8/chat-backend/internal/auth"
	"github.com/ayanasamuel8/chat-backend/internal/call"
	"github.com/ayanasamuel8/chat-backend/internal/config"
	"github.com/ayanasamuel8/chat-backend/internal/events"
	"github.com/ayanasamuel8/chat-backend/internal/hub"
	"github.com/ayanasamuel8/chat-backend/internal/metrics"
	"github.com/ayanasamuel8/chat-backend/internal/presence"
	"github.com/ayanasamuel8/chat-backend/internal/service"
	"github.com/ayanasamuel8/chat-backend/internal/store"
	"github.com/ayanasamuel8/chat-backend/internal/ws"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	var zl *zap.Logger
	if cfg.App.Env == "development" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	cancel()
	if err != nil {
		logger.Fatalw("mongo connect", "uri", cfg.Mongo.URI, "err", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	var pres *presence.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pres = presence.NewStore(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)
	}

	var producer *events.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
	}

	verifier, err := auth.NewVerifier(cfg.JWT.Secret)
	if err != nil {
		logger.Fatalw("jwt verifier init", "err", err)
	}

	met := metrics.New(prometheus.DefaultRegisterer)
	h := hub.New()
	engine := service.NewEngine(
		store.NewMongoChatStore(db),
		store.NewMongoMessageStore(db),
		h,
		publisherOrNil(producer),
		met,
		logger,
	)
	relay := call.NewRelay(h, met, logger)

	gateway := ws.NewGateway(h, engine, relay, pres, verifier, ws.Options{
		PingInterval:  cfg.PingInterval,
		WriteDeadline: cfg.WriteDeadline,
		PongWait:      cfg.PongWait,
		MaxMessage:    cfg.WS.MaxMessageSizeBytes,
		RatePerSecond: cfg.WS.RatePerSecond,
	}, met, logger)

	app := api.New(gateway)

	errs := make(chan error, 1)
	go func() {
		logger.Infow("starting realtime service", "addr", cfg.Addr())
		errs <- app.Listen(cfg.Addr())
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		logger.Errorw("server error", "err", err)
	case s := <-sig:
		logger.Infow("signal received", "signal", s.String())
	}

	if err := app.Shutdown(); err != nil {
		logger.Warnw("fiber shutdown", "err", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warnw("kafka close", "err", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Warnw("mongo disconnect", "err", err)
	}
	logger.Info("shutting down")
}

// publisherOrNil keeps the engine's Publisher interface nil when kafka is
// not configured; a typed nil would dodge the engine's nil check.
func publisherOrNil(p *events.Producer) service.Publisher {
	if p == nil {
		return nil
	}
	return p
}
