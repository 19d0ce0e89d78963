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

	"github.com/rs/zerolog/log"

	_ "github.com/urmzd/nipcam/docs"
	"github.com/urmzd/nipcam/pkg/api"
	"github.com/urmzd/nipcam/pkg/app"
	"github.com/urmzd/nipcam/pkg/device/schema"
	"github.com/urmzd/nipcam/pkg/discovery"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// @title           NIPCA Camera Bridge API
// @version         1.0
// @description     REST API for D-Link NIPCA IP cameras: configuration, motion and sensor state, raw event streams and discovery

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	var opts app.Options
	flag.StringVar(&opts.DBPath, "db", "", "Path to database file (default: ~/.config/nipcam/nipcam.db)")
	flag.StringVar(&opts.Profile, "profile", "", "Profile to activate, created if missing")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.MQTTBroker, "mqtt", "", "MQTT broker URL to publish camera events to, e.g. mqtt://localhost:1883")
	flag.DurationVar(&opts.Timeout, "timeout", nipca.DefaultTimeout, "Timeout of every camera request")
	flag.StringVar(&opts.ImportPath, "import", "", "YAML file of cameras to import at startup")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-import the camera file whenever it changes")
	addr := flag.String("addr", "", "Listen address, saved to the active profile (default: from database)")
	flag.Parse()

	if err := app.SetupLogging(opts.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Start(ctx, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	if *addr != "" {
		if err := a.DB.SetAPIAddress(ctx, a.Config.Profile.ID, *addr); err != nil {
			log.Error().Err(err).Str("address", *addr).Msg("Failed to save API address")
		}
	}
	listenAddr := a.Config.APIAddress()
	if *addr != "" {
		listenAddr = *addr
	}

	router := api.NewRouter(a.Controller, a.Subscriber, schema.NewValidator(), discovery.NewSSDPDiscoverer())
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", listenAddr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop API server")
	}
	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close")
		os.Exit(1)
	}
}
