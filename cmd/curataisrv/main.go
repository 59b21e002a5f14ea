package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/assistant"
	"github.com/curatai/curatai/internal/common/logtrace"
	"github.com/curatai/curatai/internal/config"
	"github.com/curatai/curatai/internal/metrics"
	"github.com/curatai/curatai/internal/server"
	"github.com/curatai/curatai/internal/telemetry"
)

func init() {
	logtrace.InitLogger("info", false)
}

type cmdoptions struct {
	configFile string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	opt := parseFlags()

	slog.Info().Str("config_file", opt.configFile).Msg("loading config file")
	cfg, err := config.LoadConfig(opt.configFile)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	logtrace.InitLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.LogConsole)
	slog = log.With().Str("state", "init").Logger()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	// a catalog that cannot be reached or refuses the credentials stops startup
	a, err := assistant.New(ctx, cfg, assistant.WithMetrics(metrics.New()))
	if err != nil {
		return fmt.Errorf("starting assistant: %w", err)
	}

	s, err := server.CreateNewServer(a)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.SweepConversations(sweepCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	// Start the service listening for requests.
	go func() {
		slog.Info().Str("port", cfg.Server.Port).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		// Propagation waits can hold a turn for a minute; give them time to finish.
		shutdownCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	slog.Info().Msg("server stopped")
	return nil
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	flag.StringVar(&opt.configFile, "config", config.DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
