package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"user-management-app/internal/cache"
	"user-management-app/internal/config"
	"user-management-app/internal/events"
	"user-management-app/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Consume user events, log them and mark deleted users in the cache",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load(v)
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	reader := config.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	if reader == nil {
		return errors.New("watch needs KAFKA_BROKERS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userCache := cache.UserCache(cache.Noop{})
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		userCache = cache.NewRedisCache(rdb, cfg.CacheTTL)
	}

	consumer := events.NewConsumer(reader, func(ctx context.Context, e events.Event) error {
		log.Info().
			Str("event", e.Name).
			Int("user_id", e.User.ID).
			Str("email", e.User.Email).
			Msg("user event")

		if e.Name != events.UserDeleted {
			return nil
		}
		return userCache.MarkDeleted(ctx, e.User.ID)
	})
	defer consumer.Close()

	log.Info().Str("topic", cfg.KafkaTopic).Str("group", cfg.KafkaGroupID).Msg("watching user events")
	return consumer.Run(ctx)
}
