package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/config"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/handler"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/repository"
	"github.com/vasapolrittideah/mflix-api/shared/database"
	"github.com/vasapolrittideah/mflix-api/shared/logger"
	"github.com/vasapolrittideah/mflix-api/shared/metrics"
)

type app struct {
	cfg      *config.MflixServiceConfig
	logger   *zerolog.Logger
	client   *mongo.Client
	users    repository.UserRepository
	sessions repository.SessionRepository
	comments repository.CommentRepository
}

func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)

	client, db, err := database.Connect(ctx, log, cfg.Mongo.Client())
	if err != nil {
		return nil, err
	}

	users := repository.NewUserMongoRepository(ctx, log, db, cfg.Mongo.WriteTimeout)

	return &app{
		cfg:      cfg,
		logger:   log,
		client:   client,
		users:    users,
		sessions: repository.NewSessionMongoRepository(ctx, log, db),
		comments: repository.NewCommentMongoRepository(ctx, log, db, users),
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	database.Disconnect(ctx, a.logger, a.client)
}

func (a *app) serve(ctx context.Context) error {
	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	h := handler.NewHandler(a.logger, a.users, a.sessions, a.comments, a.cfg.InternalAPIKey)
	if a.cfg.InternalAPIKey == "" {
		a.logger.Warn().Msg("INTERNAL_API_KEY is not set, session creation is disabled")
	}

	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      h.Routes(metricsHandler),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("mflix service is listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down mflix service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}

func main() {
	var envFile string

	root := &cobra.Command{
		Use:          "mflix-service",
		Short:        "Accounts, sessions and comments for the mflix movie catalog",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, envFile)
			if err != nil {
				return err
			}
			defer a.close()

			return a.serve(ctx)
		},
	}

	criticsCmd := &cobra.Command{
		Use:   "critics",
		Short: "Print the users with the most comments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			defer a.close()

			critics, err := a.comments.MostActiveCommenters(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(critics)
		},
	}

	reportCmd := &cobra.Command{Use: "report", Short: "Read-only reports"}
	reportCmd.AddCommand(criticsCmd)

	indexesCmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the collection indexes and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info().Msg("indexes are in place")
			return nil
		},
	}

	root.AddCommand(serveCmd, reportCmd, indexesCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
