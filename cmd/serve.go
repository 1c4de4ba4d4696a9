package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"user-management-app/internal/api"
	"user-management-app/internal/cache"
	"user-management-app/internal/config"
	"user-management-app/internal/events"
	"user-management-app/internal/logger"
	"user-management-app/internal/repository"
	"user-management-app/internal/service"
	"user-management-app/migrations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the user API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "4000", "API listen port (PORT)")
	serveCmd.Flags().String("store", "mysql", "user store: mysql or memory (STORE)")
	v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	v.BindPFlag("store", serveCmd.Flags().Lookup("store"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load(v)
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	userCache := cache.UserCache(cache.Noop{})
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache reads will fall through")
		}
		userCache = cache.NewRedisCache(rdb, cfg.CacheTTL)
	}

	publisher := events.Publisher(events.Noop{})
	if w := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic); w != nil {
		publisher = events.NewKafkaPublisher(w)
	}
	defer publisher.Close()

	userService := service.NewUserService(repo, userCache, publisher)
	userHandler := api.NewUserHandler(userService)

	e := api.NewRouter(userHandler, api.RouterConfig{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		JWTSecret: cfg.JWTSecret,
	})

	return serveUntilDone(ctx, e, ":"+cfg.Port)
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.UserRepository, error) {
	switch cfg.Store {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return repository.NewMemoryRepository(), nil
	case "mysql":
		db, err := repository.OpenMySQL(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := migrations.AutoMigrateUsers(3, db); err != nil {
				return nil, err
			}
		}
		return repository.NewGormRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
