package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certprep/internal/app"
	"certprep/internal/config"
	"certprep/internal/infra/file"
	"certprep/internal/infra/memory"
	transport "certprep/internal/transport/http"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the subcommand serving the websocket quiz and leaderboard API.
func NewServeCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quizzes over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("serve")
	rec := metrics.New()

	board, closeStore, err := openLeaderboard(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	banks := file.NewBankLoader(cfg.Quiz.Dir, file.WithLogger(log.Named("bank")), file.WithMetrics(rec))
	cached := memory.NewBankRepository(banks, config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute))
	loader := app.NewLoader(cached, app.Selection{
		Limit:   cfg.Quiz.Limit,
		Shuffle: cfg.Quiz.Shuffle,
		Seed:    cfg.Quiz.Seed,
	}, app.WithLoaderLogger(log.Named("loader")), app.WithLoaderMetrics(rec))

	router := transport.NewRouter(transport.RouterConfig{
		Loader:         loader,
		Banks:          banks,
		Leaderboard:    board,
		Metrics:        rec,
		Logger:         log.Named("http"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting certprep server", logger.String("addr", cfg.Server.Addr), logger.String("banks", cfg.Quiz.Dir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error(ctx, "server failed", logger.Error(err))
			return err
		}
		return nil
	case <-stop:
		log.Info(ctx, "shutting down server")
	case <-ctx.Done():
		log.Info(ctx, "context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
