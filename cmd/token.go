package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"user-management-app/internal/auth"
	"user-management-app/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for the mutating API routes (needs JWT_SECRET)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(v)
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := auth.NewToken(cfg.JWTSecret, subject, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("subject", "web", "token subject")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}
