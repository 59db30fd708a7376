package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/config"
	"github.com/spintom/inserf/internal/database"
	"github.com/spintom/inserf/internal/events"
	"github.com/spintom/inserf/internal/logging"
	"github.com/spintom/inserf/internal/order"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json", os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	pub, closePub := newPublisher(cfg, log)
	defer closePub()

	guard, closeGuard, err := newGuard(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer closeGuard()

	svc, err := newServices(cfg, st, pub, guard, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build services")
	}
	if cfg.DatabaseURL == "" {
		if err := createSeedUsers(ctx, svc.users); err != nil {
			log.Fatal().Err(err).Msg("seed users")
		}
	}

	app := newApp(cfg, svc, log)
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Str("stock_policy", cfg.StockPolicy).Msg("listening")
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (stores, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store with demo data")
		return memoryStores(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	return postgresStores(db), func() { db.Close() }, nil
}

func newPublisher(cfg config.Config, log zerolog.Logger) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS not set, order events disabled")
		return events.NopPublisher{}, func() {}
	}
	w := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	return events.NewKafkaPublisher(w), func() { closeQuietly(w, log, "kafka writer") }
}

func newGuard(ctx context.Context, cfg config.Config, log zerolog.Logger) (order.IdempotencyGuard, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set, idempotency keys kept in memory")
		return order.NewMemoryGuard(cfg.IdempotencyTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return order.NewRedisGuard(rdb, cfg.IdempotencyTTL), func() { closeQuietly(rdb, log, "redis") }, nil
}

func closeQuietly(c io.Closer, log zerolog.Logger, name string) {
	if err := c.Close(); err != nil {
		log.Error().Err(err).Str("resource", name).Msg("close")
	}
}
