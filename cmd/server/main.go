package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/Meet/internal/adapters/http"
	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/core"
)

func main() {
	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	root := newRootCmd()
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("meet exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:   "meet",
		Short: "Room presence, signaling and chat relay for video calls",
		// Running the bare binary starts the server.
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve)
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	f := cmd.Flags()
	f.Int("port", 8080, "listen port")
	f.String("mode", "release", "run mode: debug, release or test")
	f.String("static_path", "./web", "directory with the web client")
	f.String("backpressure", "drop", "slow recipient policy: drop or kick")
	f.Int("history_limit", 500, "chat entries kept per room, 0 for unbounded")
	return cmd
}

func setupLogger(mode string) {
	if mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func serve(cfg *config.Config) error {
	setupLogger(cfg.Mode)

	policy, err := app.PolicyByName(cfg.Backpressure)
	if err != nil {
		return err
	}
	o := orch.New(app.NewRegistry(), core.NewRoomManager(cfg.HistoryLimit), policy)
	o.ReplayLimit = cfg.ReplayBudget()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	go o.Run(loopCtx)

	// Upgraded connections outlive their HTTP request; this context ends
	// them on shutdown.
	connCtx, stopConns := context.WithCancel(context.Background())
	r := router.SetupRouter(connCtx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("mode", cfg.Mode).Msg("Meet server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownGrace,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info().Msg("Shutting down")
				return srv.Shutdown(ctx)
			},
			"sessions": func(ctx context.Context) error {
				stopConns()
				o.Registry.CancelAll()
				stopLoop()
				select {
				case <-o.Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	)

	select {
	case err := <-serveErr:
		stopConns()
		stopLoop()
		return fmt.Errorf("server error: %w", err)
	case code := <-wait:
		log.Info().Int("code", code).Msg("Server exited")
		if code != 0 {
			return fmt.Errorf("shutdown finished with code %d", code)
		}
		return nil
	}
}
