// Package config loads camera definitions from a YAML file.
package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/urmzd/nipcam/pkg/device"
)

// File is the layout of an import file.
type File struct {
	Cameras []Camera `mapstructure:"cameras"`
}

// Camera is one camera entry of an import file.
type Camera struct {
	Name         string `mapstructure:"name"`
	URL          string `mapstructure:"url"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	AuthMode     string `mapstructure:"auth_mode"`
	VerifySSL    bool   `mapstructure:"verify_ssl"`
	PollInterval int    `mapstructure:"poll_interval"`
}

// CameraConfig converts the entry to the bridge's configuration type.
func (c Camera) CameraConfig() device.CameraConfig {
	return device.CameraConfig{
		Name:                c.Name,
		URL:                 c.URL,
		Username:            c.Username,
		Password:            c.Password,
		AuthMode:            c.AuthMode,
		VerifySSL:           c.VerifySSL,
		PollIntervalSeconds: c.PollInterval,
	}
}

// CameraConfigs converts every entry.
func (f *File) CameraConfigs() []device.CameraConfig {
	out := make([]device.CameraConfig, 0, len(f.Cameras))
	for _, c := range f.Cameras {
		out = append(out, c.CameraConfig())
	}
	return out
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NIPCAM")
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*File, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode camera file: %w", err)
	}
	for i, c := range f.Cameras {
		if c.URL == "" {
			return nil, fmt.Errorf("camera %d (%q): url is required", i, c.Name)
		}
	}
	return &f, nil
}

// Load reads the camera file at path.
func Load(path string) (*File, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read camera file: %w", err)
	}
	return decode(v)
}

// ChangeFunc receives the camera file after every change on disk.
type ChangeFunc func(f *File)

// DefaultDebounce collapses editor write bursts into one reload.
const DefaultDebounce = 2 * time.Second

// Watch loads path once and then calls onChange whenever the file is
// written. The file is read again once no write has been seen for debounce,
// so a burst of writes yields a single reload of the final content.
func Watch(path string, debounce time.Duration, onChange ChangeFunc) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	v := newViper(abs)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read camera file: %w", err)
	}
	initial, err := decode(v)
	if err != nil {
		return nil, err
	}

	var reloadMu sync.Mutex
	reload := func() {
		reloadMu.Lock()
		defer reloadMu.Unlock()

		f, err := Load(abs)
		if err != nil {
			log.Warn().Err(err).Str("path", abs).Msg("Ignoring invalid camera file")
			return
		}
		log.Info().Str("path", abs).Int("cameras", len(f.Cameras)).Msg("Camera file changed")
		onChange(f)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if timer == nil {
			timer = time.AfterFunc(debounce, reload)
			return
		}
		timer.Reset(debounce)
	})
	v.WatchConfig()

	return initial, nil
}
