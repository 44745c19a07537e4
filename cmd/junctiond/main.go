// Command junctiond serves junction controllers over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/config"
	"github.com/anggasct/junction/pkg/history"
	"github.com/anggasct/junction/pkg/logging"
	"github.com/anggasct/junction/pkg/scheduler"
	"github.com/anggasct/junction/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $JUNCTION_CONFIG)")
	envFile := flag.String("env", ".env", "path to a .env file")
	simulate := flag.Bool("simulate", false, "create one session and advance it on its green times")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		logging.Default().Fatal().Err(err).Msg("failed to load env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Default().Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.Configure(logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *simulate); err != nil {
		logger.Fatal().Err(err).Msg("junctiond stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger *zerolog.Logger, simulate bool) error {
	opts := server.Options{
		Junction:    cfg.Junction,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	}

	if cfg.History.Dir != "" {
		store, err := history.Open(cfg.History.Dir, *logger)
		if err != nil {
			return err
		}
		if cfg.History.KeepDays > 0 {
			if _, err := store.ClearOld(cfg.History.KeepDays, time.Now()); err != nil {
				logger.Warn().Err(err).Msg("failed to clear old history")
			}
		}
		opts.History = store
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	if simulate {
		go simulateSession(ctx, srv, cfg, logger)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("junctiond listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// simulateSession registers a controller and runs it in real time until
// ctx is cancelled
func simulateSession(ctx context.Context, srv *server.Server, cfg config.Config, logger *zerolog.Logger) {
	controller, err := junction.NewController(cfg.Junction)
	if err != nil {
		logger.Error().Err(err).Msg("simulation disabled")
		return
	}
	session := srv.Register(controller)
	logger.Info().Str("session", session.ID.String()).Msg("simulation started")

	runner := &scheduler.Runner{
		Controller: controller,
		TimeScale:  cfg.Scheduler.TimeScale,
		Logger:     logger,
		OnTick: func(tick scheduler.Tick) {
			srv.Record(session)
			logger.Debug().
				Int("cycle", tick.Cycle).
				Str("lane", tick.Lane.String()).
				Int("green_time", tick.GreenTime).
				Str("next", tick.Next.String()).
				Msg("phase complete")
		},
	}
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("simulation stopped")
	}
}
