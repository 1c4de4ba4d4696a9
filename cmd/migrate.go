package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"user-management-app/internal/config"
	"user-management-app/internal/logger"
	"user-management-app/internal/repository"
	"user-management-app/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(v)
		logger.Setup(cfg.LogLevel, cfg.LogFormat)

		db, err := repository.OpenMySQL(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		repo := repository.NewGormRepository(db)
		defer repo.Close()

		if err := migrations.AutoMigrateUsers(3, db); err != nil {
			return err
		}
		log.Info().Str("db", cfg.Database.Name).Msg("users table migrated")
		return nil
	},
}
