package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/dopalist/internal/api/v1"
	"github.com/gosuda/dopalist/internal/api/ws"
	"github.com/gosuda/dopalist/internal/category"
	"github.com/gosuda/dopalist/internal/config"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/export"
	"github.com/gosuda/dopalist/internal/persist"
	"github.com/gosuda/dopalist/internal/reward"
	"github.com/gosuda/dopalist/internal/server"
	"github.com/gosuda/dopalist/internal/store/memory"
	"github.com/gosuda/dopalist/internal/store/postgres"
	redisstore "github.com/gosuda/dopalist/internal/store/redis"
	"github.com/gosuda/dopalist/internal/task"
	"github.com/gosuda/dopalist/internal/view"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(cfg.Log.Level)
	if cfg.Log.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kv, bus, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	seed, err := rewardSeed(cfg.App.RewardsFile)
	if err != nil {
		return err
	}

	gw := persist.New(kv, persist.WithKeyPrefix(cfg.Store.KeyPrefix), persist.WithRewardSeed(seed))
	channel := domain.EventsChannel(cfg.Store.KeyPrefix)
	hub := ws.NewHub(bus, channel, cfg.Server.CORSOrigins)

	rewards := reward.NewCatalog(ctx, gw, seed)
	formatter := view.NewFormatter(cfg.App.Locale)
	deps := v1.Deps{
		Tasks:      task.New(ctx, gw, task.WithRewards(rewards), task.WithEvents(hub, channel)),
		Categories: category.New(ctx, gw),
		Rewards:    rewards,
		Formatter:  formatter,
		Exporter:   export.New(formatter.Locale()),
	}

	srv := server.New(ctx, cfg, deps, hub)

	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("store", cfg.Store.Kind).
			Str("locale", formatter.Locale().String()).
			Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// openBackend connects the configured key-value store and the event bus
// that fans change events out to websocket clients.
func openBackend(ctx context.Context, cfg *config.Config) (domain.KVStore, ws.Bus, func(), error) {
	switch cfg.Store.Kind {
	case config.StorePostgres:
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return nil, nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, nil, nil, err
			}
		}
		return store.Collections(), memory.NewBus(), store.Close, nil

	case config.StoreRedis:
		client, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}
		return client, client, closeFn, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewKV(), memory.NewBus(), func() {}, nil
	}
}

func rewardSeed(path string) ([]domain.Reward, error) {
	if path == "" {
		return reward.DefaultCatalog()
	}
	seed, err := reward.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("rewards file: %w", err)
	}
	return seed, nil
}
