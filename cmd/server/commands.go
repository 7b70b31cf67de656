package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/config"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/container"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/database"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/postgres"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	envFile  string
	tokenTTL time.Duration

	rootCmd = &cobra.Command{
		Use:           "matchmaker",
		Short:         "Candidate matching and mutual-match coordination service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables",
		RunE:  runMigrate,
	}
	tokenCmd = &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign a development access token",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to the .env file")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.NewContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Error("error closing application", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.Server.Start)
	if app.Fanout != nil {
		g.Go(func() error {
			return app.Fanout.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return app.Server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server exited properly")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	db, err := database.NewPostgresDB(cmd.Context(), &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("user id must be a UUID: %w", err)
	}

	token, err := auth.NewTokenService(cfg.JWT.AccessSecret).IssueToken(args[0], tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
