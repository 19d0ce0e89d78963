package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/nipcam/pkg/app"
	"github.com/urmzd/nipcam/pkg/device/schema"
	"github.com/urmzd/nipcam/pkg/discovery"
	nipcammcp "github.com/urmzd/nipcam/pkg/mcp"
	"github.com/urmzd/nipcam/pkg/nipca"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.DBPath, "db", "", "Path to database file (default: ~/.config/nipcam/nipcam.db)")
	flag.StringVar(&opts.Profile, "profile", "", "Profile to activate, created if missing")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.MQTTBroker, "mqtt", "", "MQTT broker URL to publish camera events to")
	flag.DurationVar(&opts.Timeout, "timeout", nipca.DefaultTimeout, "Timeout of every camera request")
	flag.StringVar(&opts.ImportPath, "import", "", "YAML file of cameras to import at startup")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-import the camera file whenever it changes")
	flag.Parse()

	// Logging must go to stderr; stdout is the MCP transport
	if err := app.SetupLogging(opts.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Start(ctx, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close")
		}
	}()

	mcpServer := nipcammcp.NewServer(a.Controller, schema.NewValidator(), discovery.NewSSDPDiscoverer())

	// ServeStdio handles SIGINT/SIGTERM itself and returns.
	log.Info().Msg("Starting MCP server on stdio")
	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
