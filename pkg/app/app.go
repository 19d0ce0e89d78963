// Package app wires the database, camera hub and MQTT publisher shared by
// the API and MCP binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/nipcam/pkg/camera"
	"github.com/urmzd/nipcam/pkg/config"
	"github.com/urmzd/nipcam/pkg/db"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/mqtt"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// Options are the command line settings common to both binaries.
type Options struct {
	DBPath     string
	Profile    string
	LogLevel   string
	MQTTBroker string
	Timeout    time.Duration
	ImportPath string
	Watch      bool
}

// App is a running bridge.
type App struct {
	DB         *db.DB
	Config     *db.Config
	Controller device.Controller
	Subscriber device.EventSubscriber
	Notifier   *nipca.ShutdownNotifier

	hub  *camera.Hub
	mqtt *mqtt.Client
}

// SetupLogging sends console formatted logs to stderr at level.
func SetupLogging(level string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Start opens the database and starts every configured camera. If the hub
// cannot start the app falls back to a null controller.
func Start(ctx context.Context, opts Options) (*App, error) {
	database, err := openDatabase(ctx, opts)
	if err != nil {
		return nil, err
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("timezone", cfg.Timezone()).
		Str("api_address", cfg.APIAddress()).
		Msg("Configuration loaded")

	a := &App{
		DB:       database,
		Config:   cfg,
		Notifier: nipca.NewShutdownNotifier(),
	}

	hubOpts := []camera.Option{camera.WithShutdownNotifier(a.Notifier)}
	if opts.Timeout > 0 {
		hubOpts = append(hubOpts, camera.WithTimeout(opts.Timeout))
	}
	if opts.MQTTBroker != "" {
		client, err := mqtt.New(opts.MQTTBroker, "nipcam-"+cfg.Profile.Name)
		if err != nil {
			log.Warn().Err(err).Str("broker", opts.MQTTBroker).Msg("MQTT unavailable, events will not be published")
		} else {
			a.mqtt = client
			hubOpts = append(hubOpts, camera.WithPublisher(client))
		}
	}

	hub := camera.NewHub(database.Cameras(), cfg.Profile.ID, hubOpts...)
	if err := hub.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("Camera hub unavailable, using null controller")
		a.Controller = device.NewNullController()
		a.Subscriber = device.NewNullEventSubscriber()
		return a, nil
	}
	a.hub = hub
	a.Controller = hub
	a.Subscriber = hub

	if opts.ImportPath != "" {
		if err := a.importCameras(ctx, opts.ImportPath, opts.Watch); err != nil {
			log.Error().Err(err).Str("path", opts.ImportPath).Msg("Camera import failed")
		}
	}

	return a, nil
}

func openDatabase(ctx context.Context, opts Options) (*db.DB, error) {
	database, err := db.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("check bootstrap status: %w", err)
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
	}

	if opts.Profile != "" {
		if _, err := database.UseProfile(ctx, opts.Profile); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("use profile %q: %w", opts.Profile, err)
		}
	}
	return database, nil
}

// importCameras loads the camera file into the hub and, when watch is set,
// imports it again on every change.
func (a *App) importCameras(ctx context.Context, path string, watch bool) error {
	if !watch {
		f, err := config.Load(path)
		if err != nil {
			return err
		}
		return a.hub.Import(ctx, f.CameraConfigs())
	}

	// The watcher outlives ctx; it stops with the process.
	bg := context.WithoutCancel(ctx)
	f, err := config.Watch(path, config.DefaultDebounce, func(f *config.File) {
		if err := a.hub.Import(bg, f.CameraConfigs()); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Camera re-import failed")
			return
		}
		log.Debug().Str("path", path).Int("cameras", len(f.Cameras)).Msg("Camera file re-imported")
	})
	if err != nil {
		return err
	}
	return a.hub.Import(ctx, f.CameraConfigs())
}

// Close stops the cameras, the MQTT connection and the database.
func (a *App) Close() error {
	a.Notifier.Notify()
	if a.hub != nil {
		a.hub.Close()
	}
	if a.mqtt != nil {
		a.mqtt.Close()
	}

	var errs []error
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
