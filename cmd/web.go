package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"user-management-app/internal/client"
	"user-management-app/internal/config"
	"user-management-app/internal/logger"
	"user-management-app/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the web frontend",
	RunE:  runWeb,
}

func init() {
	webCmd.Flags().String("web-port", "3000", "frontend listen port (WEB_PORT)")
	webCmd.Flags().String("api-url", "http://localhost:4000", "user API base URL (NEXT_PUBLIC_API_URL)")
	v.BindPFlag("web_port", webCmd.Flags().Lookup("web-port"))
	v.BindPFlag("next_public_api_url", webCmd.Flags().Lookup("api-url"))
}

func runWeb(cmd *cobra.Command, args []string) error {
	cfg := config.Load(v)
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiClient := client.New(cfg.APIURL, cfg.APIToken)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if msg, err := apiClient.Test(pingCtx); err != nil {
		log.Warn().Err(err).Str("api_url", cfg.APIURL).Msg("user API not reachable yet")
	} else {
		log.Info().Str("api_url", cfg.APIURL).Msg(msg)
	}
	cancel()

	h, err := web.NewHandler(apiClient, web.NewSessions(24*time.Hour))
	if err != nil {
		return err
	}

	return serveUntilDone(ctx, web.NewRouter(h), ":"+cfg.WebPort)
}
