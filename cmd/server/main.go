package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomrelay-server/internal/app"
	"github.com/vovakirdan/roomrelay-server/internal/config"
	"github.com/vovakirdan/roomrelay-server/internal/log"
	"github.com/vovakirdan/roomrelay-server/internal/store/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "roomrelay",
		Short:        "Real-time chat and peer signaling relay",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(useraddCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	var overrides config.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New("info")

			cfg, path, err := config.Load(logger, *configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			// Rebuild once the configured level is known.
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting roomrelay server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&overrides.DatabasePath, "db", "", "path to the SQLite database")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func useraddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "useradd <username>",
		Short: "Seed a chat user (accounts are managed externally)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New("info")

			cfg, _, err := config.Load(logger, *configPath)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.CreateUser(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			logger.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("user created")
			return nil
		},
	}
}
