package nipca

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/nipcam/pkg/metrics"
)

// EventHandler is called from the listener goroutine after every applied
// event line. It must not block for long.
type EventHandler func(key, value string)

// Option customizes a Device.
type Option func(*Device)

// WithTransport replaces the HTTP transport built from the config.
func WithTransport(t Transport) Option {
	return func(d *Device) { d.transport = t }
}

// WithEventHandler registers fn to observe event stream updates.
func WithEventHandler(fn EventHandler) Option {
	return func(d *Device) { d.onEvent = fn }
}

// WithShutdownNotifier ties the device's listener to process shutdown.
func WithShutdownNotifier(n *ShutdownNotifier) Option {
	return func(d *Device) { d.notifier = n }
}

// WithLogger sets the logger used for device and listener messages.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// Device is the adapter for a single NIPCA camera. It caches the resolved base
// URL, the attributes read from the CGI endpoints and the latest event values.
type Device struct {
	cfg        Config
	transport  Transport
	onEvent    EventHandler
	notifier   *ShutdownNotifier
	deregister func()
	log        zerolog.Logger

	mu         sync.RWMutex
	baseURL    string
	attributes Attributes

	eventsMu sync.RWMutex
	events   map[string]string

	listenerMu sync.Mutex
	listener   *Listener
	generation uint64
	closed     bool
}

// NewDevice builds an adapter for cfg. Nothing is fetched until
// ResolvePresentationURL or RefreshAttributes is called.
func NewDevice(cfg Config, opts ...Option) *Device {
	cfg.Name = cfg.name()

	d := &Device{
		cfg:        cfg,
		attributes: make(Attributes),
		events:     make(map[string]string),
		log:        log.With().Str("camera", cfg.Name).Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.transport == nil {
		d.transport = NewHTTPTransport(cfg)
	}
	if d.notifier != nil {
		d.deregister = d.notifier.Register(d.CancelListening)
	}
	return d
}

// Config returns the configuration the device was built with.
func (d *Device) Config() Config {
	return d.cfg
}

// Name is the display name of the camera.
func (d *Device) Name() string {
	return d.cfg.Name
}

// TaskName identifies the listener goroutine in logs.
func (d *Device) TaskName() string {
	return fmt.Sprintf("nipca_%s_listener", d.cfg.Name)
}

// BaseURL returns the resolved presentation URL, or "" before resolution.
func (d *Device) BaseURL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.baseURL
}

// ResolvePresentationURL reads the UPnP device description once and caches
// the presentation URL as the camera base URL.
func (d *Device) ResolvePresentationURL(ctx context.Context) (string, error) {
	if base := d.BaseURL(); base != "" {
		return base, nil
	}

	body, err := d.transport.Fetch(ctx, d.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("fetch device description: %w", err)
	}

	base, err := parsePresentationURL(d.cfg.URL, body)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	if d.baseURL == "" {
		d.baseURL = base
	}
	base = d.baseURL
	d.mu.Unlock()

	d.log.Debug().Str("url", base).Msg("Resolved presentation URL")
	return base, nil
}

// RefreshAttributes merges the info, stream info and motion info endpoints
// into the attribute cache. Endpoint failures leave the cache as it was for
// that endpoint. Only a failed presentation URL lookup is returned.
func (d *Device) RefreshAttributes(ctx context.Context) error {
	base, err := d.ResolvePresentationURL(ctx)
	if err != nil {
		return err
	}

	merged := make(Attributes)
	merged.Merge(d.fetchAttributes(ctx, base, commonInfoPath))
	merged.Merge(d.fetchAttributes(ctx, base, streamInfoPath))
	for _, path := range motionInfoPaths {
		if attrs := d.fetchAttributes(ctx, base, path); len(attrs) > 0 {
			merged.Merge(attrs)
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.attributes.Merge(merged)
	d.mu.Unlock()

	d.log.Debug().Int("attributes", len(merged)).Msg("Attributes refreshed")
	return nil
}

func (d *Device) fetchAttributes(ctx context.Context, base, path string) Attributes {
	url := base + path
	body, err := d.transport.Fetch(ctx, url)
	if err != nil {
		d.log.Debug().Err(err).Str("url", url).Msg("NIPCA endpoint unavailable")
		metrics.EndpointFailures.WithLabelValues(d.cfg.Name, path).Inc()
		return nil
	}
	return Parse(body)
}

// CheckAccess verifies the configured credentials by resolving the
// presentation URL and downloading a still image.
func (d *Device) CheckAccess(ctx context.Context) error {
	if _, err := d.ResolvePresentationURL(ctx); err != nil {
		return err
	}
	if _, err := d.transport.Fetch(ctx, d.StillImageURL()); err != nil {
		return fmt.Errorf("fetch still image: %w", err)
	}
	return nil
}

// Attributes returns a copy of the attribute cache.
func (d *Device) Attributes() Attributes {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.attributes.Clone()
}

// Attribute returns a single cached attribute.
func (d *Device) Attribute(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.attributes[key]
	return v, ok
}

// MJPEGURL is the URL of stream profile 1. Without the profile attribute it
// is the bare base URL.
func (d *Device) MJPEGURL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.baseURL + d.attributes["vprofileurl1"]
}

func (d *Device) StillImageURL() string {
	return d.BaseURL() + stillImagePath
}

// MotionDetectionEnabled reads the two flags firmware revisions use for the
// same setting.
func (d *Device) MotionDetectionEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.attributes["enable"] == "yes" || d.attributes["motiondetectionenable"] == "1"
}

// Events returns a copy of the latest value of every event key seen so far.
func (d *Device) Events() map[string]string {
	d.eventsMu.RLock()
	defer d.eventsMu.RUnlock()
	out := make(map[string]string, len(d.events))
	for k, v := range d.events {
		out[k] = v
	}
	return out
}

func (d *Device) setEvent(key, value string) {
	d.eventsMu.Lock()
	d.events[key] = value
	d.eventsMu.Unlock()

	metrics.EventsReceived.WithLabelValues(d.cfg.Name).Inc()
	if d.onEvent != nil {
		d.onEvent(key, value)
	}
}

// Close cancels the listener and detaches the device from the shutdown
// notifier. The device cannot listen again afterwards.
func (d *Device) Close() {
	if d.deregister != nil {
		d.deregister()
	}

	d.listenerMu.Lock()
	d.closed = true
	d.listenerMu.Unlock()

	d.CancelListening()
}
