// Command server runs the Roomie Mart HTTP API.
//
//	@title						Roomie Mart API
//	@version					1.0
//	@description				Campus marketplace: listings, purchase requests, simulated payments, orders, messages and feedback.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/roomie-mart-backend/internal/config"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	httpapi "github.com/tbourn/roomie-mart-backend/internal/http"
	"github.com/tbourn/roomie-mart-backend/internal/observability"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev"))
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(repo.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		Path:     cfg.DBPath,
		Tracing:  cfg.OTEL.Enabled,
		LogLevel: gormLogLevel(cfg.LogLevel),
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v == "" || sysutil.IsTruthy(v) {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		log.Info().Str("driver", sysutil.FirstNonEmpty(cfg.DBDriver, repo.DriverSQLite)).Msg("migrations applied")
	}

	pub, err := newPublisher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("event publisher")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("close event publisher")
		}
	}()

	deps := httpapi.Deps{DB: db, Events: pub}
	if cfg.Redis.Addr != "" {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("connect redis")
		}
		defer func() { _ = rdb.Close() }()
		deps.Redis = rdb
	}

	go purgeIdempotency(ctx, db, time.Hour)

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("roomie-mart listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

// newPublisher picks Kafka when brokers are configured and the in-process bus
// otherwise.
func newPublisher(cfg config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) > 0 {
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("prefix", cfg.EventTopicPrefix).Msg("publishing events to kafka")
		k, err := events.NewKafka(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		return k, nil
	}
	return events.NewInProcess(nil), nil
}

func connectRedis(ctx context.Context, rc config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Info().Str("addr", rc.Addr).Msg("redis connected; shared rate limiter enabled")
	return rdb, nil
}

// purgeIdempotency deletes expired Idempotency-Key records until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency keys")
			}
		}
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return logger.Info
	case "error", "fatal", "panic":
		return logger.Error
	default:
		return logger.Warn
	}
}
