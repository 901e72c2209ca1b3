package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridsight/gridsight/internal/adapters/firebase"
	"github.com/gridsight/gridsight/internal/adapters/http/api"
	"github.com/gridsight/gridsight/internal/app"
	"github.com/gridsight/gridsight/internal/artifact"
	"github.com/gridsight/gridsight/internal/config"
	"github.com/gridsight/gridsight/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	var (
		component  = flag.String("component", "", "component key to diagnose, e.g. transformer")
		areaCode   = flag.String("area", "", "area code for the upstream fetch")
		substation = flag.String("substation", "", "substation ID for the upstream fetch")
		fromStdin  = flag.Bool("stdin", false, "read a direct-mode reading map as JSON from stdin")
		simulate   = flag.Bool("simulate", false, "run the simulation pipeline; reads the panel JSON from stdin")
		serve      = flag.Bool("serve", false, "run the HTTP API server instead of a one-shot prediction")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	fb := firebase.NewClient(
		firebase.WithDatabaseURL(cfg.FirebaseDatabaseURL),
		firebase.WithCredentialsFile(cfg.FirebaseCredentialsPath),
		firebase.WithCredentialsJSON(cfg.FirebaseCredentialsJSON),
	)
	svc := app.New(
		app.WithLogger(log),
		app.WithTelemetry(fb),
		app.WithAssets(fb),
		app.WithStore(artifact.NewStore(cfg.ModelRoot)),
		app.WithReferenceYear(cfg.ReferenceYear),
		app.WithTimelineHours(cfg.TimelineHours),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn(ctx, "close failed", logger.Error(err))
		}
	}()

	if *serve {
		runServer(ctx, log, cfg, svc)
		return
	}

	if *component == "" {
		fail(*component, "missing -component")
	}

	var out any
	switch {
	case *simulate:
		panel, err := readStdinMap()
		if err != nil {
			fail(*component, "invalid panel JSON: "+err.Error())
		}
		out, err = svc.Simulate(ctx, *component, *substation, panel)
		if err != nil {
			fail(*component, err.Error())
		}
	default:
		var input map[string]any
		if *fromStdin {
			input, err = readStdinMap()
			if err != nil {
				fail(*component, "invalid input JSON: "+err.Error())
			}
		}
		out, err = svc.Predict(ctx, *component, *areaCode, *substation, input)
		if err != nil {
			fail(*component, err.Error())
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(*component, err.Error())
	}
}

func runServer(ctx context.Context, log logger.Logger, cfg *config.Config, svc *app.Service) {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

func readStdinMap() (map[string]any, error) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fail writes the one-shot error envelope to stderr and exits nonzero so
// callers can pipe stdout as pure JSON.
func fail(component, msg string) {
	_ = json.NewEncoder(os.Stderr).Encode(map[string]string{
		"error":     msg,
		"component": component,
	})
	os.Exit(1)
}
