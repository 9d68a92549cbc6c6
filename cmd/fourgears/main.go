package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fourgears/internal/board"
	"fourgears/internal/config"
	"fourgears/internal/github"
	"fourgears/internal/notify"
	"fourgears/internal/secrets"
	"fourgears/internal/server"
	"fourgears/internal/storage/sqlstore"
	"fourgears/internal/util"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "fourgears",
	Short:         "4Gears platform backend",
	Long:          "fourgears serves the 4Gears project board, quoting and submission API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", util.EnvOrDefault("FOURGEARS_CONFIG", "fourgears.yaml"), "Path to YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, adminCmd, quoteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration, builds the logger and opens the store.
func setup() (config.Config, *slog.Logger, *sqlstore.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	store, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("unable to open database: %w", err)
	}
	return cfg, logger, store, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.SecretKey == "" {
			return errors.New("secret_key is required to store the GitHub token")
		}
		box, err := secrets.NewBox(cfg.SecretKey)
		if err != nil {
			return err
		}
		vault := secrets.NewVault(store, box)

		tracker := github.New(cfg.GitHub.APIURL, cfg.GitHub.Owner, vault, &http.Client{Timeout: cfg.GitHub.Timeout})
		svc := board.New(store, board.Options{
			Tracker:       tracker,
			Pricing:       cfg.Pricing.Pricing(),
			Logger:        logger,
			MirrorTimeout: cfg.GitHub.Timeout,
		})
		srv := server.New(server.Options{
			Board:         svc,
			Vault:         vault,
			Notifier:      notify.New(logger),
			Logger:        logger,
			StaticDir:     cfg.StaticDir,
			WebhookSecret: cfg.Notify.WebhookSecret,
		})

		httpServer := &http.Server{
			Addr:    cfg.Addr,
			Handler: srv.Engine(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("driver", store.Driver()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server stopped unexpectedly: %w", err)
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		}
		logger.Info("server stopped")
		return nil
	},
}
