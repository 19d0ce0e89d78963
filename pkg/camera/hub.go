// Package camera runs the configured NIPCA cameras and exposes them through
// the protocol-agnostic device interfaces.
package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/nipcam/pkg/db"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/mqtt"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// DefaultRetryInterval is how often cameras that failed setup are retried.
const DefaultRetryInterval = time.Minute

// Option customizes a Hub.
type Option func(*Hub)

// WithPublisher forwards every event stream update to an MQTT broker.
func WithPublisher(p mqtt.Publisher) Option {
	return func(h *Hub) { h.publisher = p }
}

// WithShutdownNotifier shares the process shutdown notifier with the hub.
func WithShutdownNotifier(n *nipca.ShutdownNotifier) Option {
	return func(h *Hub) { h.notifier = n }
}

// WithTimeout bounds every camera request.
func WithTimeout(d time.Duration) Option {
	return func(h *Hub) { h.timeout = d }
}

// WithRetryInterval sets how often unavailable cameras are set up again.
func WithRetryInterval(d time.Duration) Option {
	return func(h *Hub) { h.retryInterval = d }
}

// WithTransport replaces the HTTP transport of every camera.
func WithTransport(fn func(nipca.Config) nipca.Transport) Option {
	return func(h *Hub) { h.newTransport = fn }
}

// Hub owns one adapter and coordinator per configured camera. It implements
// device.Controller and device.EventSubscriber.
type Hub struct {
	store         db.CameraStore
	profileID     int64
	notifier      *nipca.ShutdownNotifier
	publisher     mqtt.Publisher
	timeout       time.Duration
	retryInterval time.Duration
	newTransport  func(nipca.Config) nipca.Transport

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	cameras map[string]*entry
	running bool

	subscribersMu sync.Mutex
	subscribers   map[chan device.Event]struct{}
}

var (
	_ device.Controller      = (*Hub)(nil)
	_ device.EventSubscriber = (*Hub)(nil)
)

// NewHub creates a hub for the cameras of profileID in store.
func NewHub(store db.CameraStore, profileID int64, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		store:         store,
		profileID:     profileID,
		timeout:       nipca.DefaultTimeout,
		retryInterval: DefaultRetryInterval,
		ctx:           ctx,
		cancel:        cancel,
		cameras:       make(map[string]*entry),
		subscribers:   make(map[chan device.Event]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.notifier == nil {
		h.notifier = nipca.NewShutdownNotifier()
	}
	return h
}

// Start sets up every stored camera concurrently. A camera that cannot be
// reached stays listed as unavailable and is retried in the background.
func (h *Hub) Start(ctx context.Context) error {
	records, err := h.store.List(ctx, h.profileID)
	if err != nil {
		return fmt.Errorf("list cameras: %w", err)
	}

	h.mu.Lock()
	h.running = true
	for _, rec := range records {
		h.cameras[rec.ID] = &entry{record: *rec}
	}
	entries := h.entriesLocked()
	h.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(func() error {
			_ = h.setup(gctx, e)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	h.wg.Add(1)
	go h.retryLoop()

	log.Info().Int("cameras", len(entries)).Msg("Camera hub started")
	return nil
}

func (h *Hub) retryLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.Reload(h.ctx)
		}
	}
}

// Reload retries setup of every unavailable camera and returns how many
// came up.
func (h *Hub) Reload(ctx context.Context) int {
	h.mu.RLock()
	entries := h.entriesLocked()
	h.mu.RUnlock()

	recovered := 0
	for _, e := range entries {
		// A camera already being set up is skipped.
		if !e.setupMu.TryLock() {
			continue
		}
		if !e.available() && h.setupLocked(ctx, e) == nil {
			recovered++
		}
		e.setupMu.Unlock()
	}
	return recovered
}

// setup builds the adapter, reads attributes, derives sensors and starts the
// listener and coordinator.
func (h *Hub) setup(ctx context.Context, e *entry) error {
	e.setupMu.Lock()
	defer e.setupMu.Unlock()
	return h.setupLocked(ctx, e)
}

// setupLocked is setup with e.setupMu held.
func (h *Hub) setupLocked(ctx context.Context, e *entry) error {
	e.stop()

	e.mu.RLock()
	rec := e.record
	e.mu.RUnlock()

	logger := log.With().Str("camera", rec.Name).Str("id", rec.ID).Logger()
	d := nipca.NewDevice(toNipcaConfig(rec, h.timeout), h.deviceOptions(rec.ID)...)

	err := d.RefreshAttributes(ctx)
	if err == nil {
		// The hub may have closed or dropped the camera while it was read.
		err = h.owns(rec.ID, e)
	}
	if err != nil {
		d.Close()
		e.mu.Lock()
		e.device = nil
		e.setupErr = err
		e.mu.Unlock()
		logger.Warn().Err(err).Msg("Camera unavailable")
		return err
	}

	runCtx, cancel := context.WithCancel(h.ctx)
	done := make(chan struct{})
	sensors := nipca.DeriveSensors(d.Attributes())

	e.mu.Lock()
	e.device = d
	e.sensors = sensors
	e.setupErr = nil
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	d.StartListening(runCtx)
	coordinator := nipca.NewCoordinator(d, e.update)
	go func() {
		defer close(done)
		coordinator.Run(runCtx)
	}()

	logger.Info().
		Str("base_url", d.BaseURL()).
		Int("sensors", len(sensors)).
		Bool("motion_detection", d.MotionDetectionEnabled()).
		Msg("Camera ready")
	return nil
}

func (h *Hub) deviceOptions(id string) []nipca.Option {
	opts := []nipca.Option{
		nipca.WithShutdownNotifier(h.notifier),
		nipca.WithEventHandler(h.eventHandler(id)),
	}
	if h.newTransport != nil {
		// The transport needs the final config, so it is built lazily.
		opts = append(opts, func(d *nipca.Device) {
			nipca.WithTransport(h.newTransport(d.Config()))(d)
		})
	}
	return opts
}

// eventHandler forwards listener updates to subscribers and MQTT.
func (h *Hub) eventHandler(id string) nipca.EventHandler {
	return func(key, value string) {
		h.publishEvent(device.Event{
			Type:      device.EventSensorChanged,
			DeviceID:  id,
			Key:       key,
			Value:     value,
			Timestamp: time.Now(),
		})

		if h.publisher == nil {
			return
		}
		if err := h.publisher.Publish(mqtt.EventTopic(id, key), []byte(value), true); err != nil {
			log.Warn().Err(err).Str("id", id).Str("key", key).Msg("MQTT publish failed")
		}
	}
}

func (h *Hub) entriesLocked() []*entry {
	entries := make([]*entry, 0, len(h.cameras))
	for _, e := range h.cameras {
		entries = append(entries, e)
	}
	return entries
}

// owns fails unless the hub is running and e is still its entry for id.
func (h *Hub) owns(id string, e *entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.running {
		return device.ErrNotConnected
	}
	if h.cameras[id] != e {
		return device.ErrNotFound
	}
	return nil
}

func (h *Hub) lookup(id string) (*entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.running {
		return nil, device.ErrNotConnected
	}
	e, ok := h.cameras[id]
	if !ok {
		return nil, device.ErrNotFound
	}
	return e, nil
}

// --- device.Controller ---

func (h *Hub) ListDevices(_ context.Context) ([]device.Device, error) {
	h.mu.RLock()
	entries := h.entriesLocked()
	h.mu.RUnlock()

	devices := make([]device.Device, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, e.view())
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].ID < devices[j].ID
	})
	return devices, nil
}

func (h *Hub) GetDevice(_ context.Context, id string) (*device.Device, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	v := e.view()
	return &v, nil
}

// AddDevice checks the camera answers with the given credentials before
// storing it.
func (h *Hub) AddDevice(ctx context.Context, cfg device.CameraConfig) (*device.Device, error) {
	if !h.IsConnected() {
		return nil, device.ErrNotConnected
	}

	rec, err := h.newRecord(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := h.store.GetByURL(ctx, h.profileID, rec.URL); err == nil {
		return nil, fmt.Errorf("%w: %s", device.ErrAlreadyExists, rec.URL)
	} else if !errors.Is(err, db.ErrCameraNotFound) {
		return nil, err
	}

	probe := nipca.NewDevice(toNipcaConfig(rec, h.timeout), h.probeOptions()...)
	err = probe.CheckAccess(ctx)
	probe.Close()
	if err != nil {
		return nil, classifyAccessError(err)
	}

	if err := h.store.Create(ctx, &rec); err != nil {
		if errors.Is(err, db.ErrCameraExists) {
			return nil, fmt.Errorf("%w: %s", device.ErrAlreadyExists, rec.URL)
		}
		return nil, err
	}

	e := &entry{record: rec}
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil, device.ErrNotConnected
	}
	h.cameras[rec.ID] = e
	h.mu.Unlock()

	_ = h.setup(ctx, e)

	v := e.view()
	h.publishEvent(device.Event{Type: device.EventDeviceAdded, DeviceID: rec.ID, Device: &v, Timestamp: time.Now()})
	return &v, nil
}

func (h *Hub) probeOptions() []nipca.Option {
	if h.newTransport == nil {
		return nil
	}
	return []nipca.Option{func(d *nipca.Device) {
		nipca.WithTransport(h.newTransport(d.Config()))(d)
	}}
}

// Import stores cameras from a config file. Entries matching a stored URL
// update it; new ones are added without an access check and come up as soon
// as they answer.
func (h *Hub) Import(ctx context.Context, cfgs []device.CameraConfig) error {
	if !h.IsConnected() {
		return device.ErrNotConnected
	}

	var errs []error
	for _, cfg := range cfgs {
		if err := h.importOne(ctx, cfg); err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", cfg.URL, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) importOne(ctx context.Context, cfg device.CameraConfig) error {
	rec, err := h.newRecord(cfg)
	if err != nil {
		return err
	}

	existing, err := h.store.GetByURL(ctx, h.profileID, rec.URL)
	switch {
	case errors.Is(err, db.ErrCameraNotFound):
		if err := h.store.Create(ctx, &rec); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		if sameConfig(*existing, rec) {
			return nil
		}
		if err := h.store.Update(ctx, &rec); err != nil {
			return err
		}
	}

	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return device.ErrNotConnected
	}
	e, ok := h.cameras[rec.ID]
	if !ok {
		e = &entry{}
		h.cameras[rec.ID] = e
	}
	h.mu.Unlock()

	e.setupMu.Lock()
	e.mu.Lock()
	e.record = rec
	e.mu.Unlock()
	err = h.setupLocked(ctx, e)
	e.setupMu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("url", rec.URL).Msg("Imported camera not reachable yet")
	}

	v := e.view()
	eventType := device.EventDeviceUpdated
	if !ok {
		eventType = device.EventDeviceAdded
	}
	h.publishEvent(device.Event{Type: eventType, DeviceID: rec.ID, Device: &v, Timestamp: time.Now()})
	return nil
}

func sameConfig(a, b db.Camera) bool {
	return a.Name == b.Name && a.Username == b.Username && a.Password == b.Password &&
		a.AuthMode == b.AuthMode && a.VerifySSL == b.VerifySSL && a.PollInterval == b.PollInterval
}

// newRecord applies defaults and validates cfg.
func (h *Hub) newRecord(cfg device.CameraConfig) (db.Camera, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return db.Camera{}, fmt.Errorf("%w: url is required", device.ErrValidation)
	}

	mode, err := nipca.ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return db.Camera{}, fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = nipca.DefaultName
	}

	interval := cfg.PollIntervalSeconds
	if interval < 0 {
		return db.Camera{}, fmt.Errorf("%w: poll interval must be positive", device.ErrValidation)
	}
	if interval == 0 {
		interval = int(nipca.DefaultPollInterval / time.Second)
	}

	return db.Camera{
		ID:           uuid.NewString(),
		ProfileID:    h.profileID,
		Name:         name,
		URL:          url,
		Username:     cfg.Username,
		Password:     cfg.Password,
		AuthMode:     string(mode),
		VerifySSL:    cfg.VerifySSL,
		PollInterval: interval,
	}, nil
}

// classifyAccessError maps a failed access check onto the device errors.
func classifyAccessError(err error) error {
	var unreachable *nipca.UnreachableError
	if errors.As(err, &unreachable) &&
		(unreachable.StatusCode == http.StatusUnauthorized || unreachable.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", device.ErrInvalidAuth, err)
	}

	var discoveryErr *nipca.DiscoveryError
	if errors.As(err, &discoveryErr) {
		return fmt.Errorf("%w: %w", device.ErrValidation, err)
	}
	if errors.Is(err, nipca.ErrTimeout) {
		return fmt.Errorf("%w: %w", device.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", device.ErrUnavailable, err)
}

func (h *Hub) RenameDevice(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: name must not be empty", device.ErrValidation)
	}

	e, err := h.lookup(id)
	if err != nil {
		return err
	}

	e.mu.RLock()
	rec := e.record
	e.mu.RUnlock()

	rec.Name = newName
	if err := h.store.Update(ctx, &rec); err != nil {
		if errors.Is(err, db.ErrCameraNotFound) {
			return device.ErrNotFound
		}
		return err
	}

	e.mu.Lock()
	e.record.Name = newName
	e.mu.Unlock()

	v := e.view()
	h.publishEvent(device.Event{Type: device.EventDeviceUpdated, DeviceID: id, Device: &v, Timestamp: time.Now()})
	return nil
}

func (h *Hub) RemoveDevice(ctx context.Context, id string) error {
	e, err := h.lookup(id)
	if err != nil {
		return err
	}

	if err := h.store.Delete(ctx, id); err != nil && !errors.Is(err, db.ErrCameraNotFound) {
		return err
	}

	h.mu.Lock()
	delete(h.cameras, id)
	h.mu.Unlock()

	e.shutdown()
	h.publishEvent(device.Event{Type: device.EventDeviceRemoved, DeviceID: id, Timestamp: time.Now()})
	return nil
}

// RefreshDevice re-reads the attributes of a camera, setting it up first if
// it was unavailable.
func (h *Hub) RefreshDevice(ctx context.Context, id string) (*device.Device, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}

	e.setupMu.Lock()
	defer e.setupMu.Unlock()

	if !e.available() {
		if err := h.setupLocked(ctx, e); err != nil {
			return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
		}
	} else {
		e.mu.RLock()
		d := e.device
		e.mu.RUnlock()

		if err := d.RefreshAttributes(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
		}

		e.mu.Lock()
		e.sensors = nipca.DeriveSensors(d.Attributes())
		e.mu.Unlock()
	}

	v := e.view()
	return &v, nil
}

func (h *Hub) GetDeviceState(_ context.Context, id string) (device.DeviceState, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	if !e.available() {
		return nil, device.ErrUnavailable
	}
	return e.state(), nil
}

func (h *Hub) GetDeviceEvents(_ context.Context, id string) (map[string]string, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.events(), nil
}

func (h *Hub) ListSensors(_ context.Context, id string) ([]device.Sensor, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.view().Sensors, nil
}

func (h *Hub) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Close fires the shutdown notifier, stops every coordinator and closes the
// subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	entries := h.entriesLocked()
	h.mu.Unlock()

	h.notifier.Notify()
	h.cancel()
	h.wg.Wait()
	for _, e := range entries {
		e.shutdown()
	}

	h.subscribersMu.Lock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan device.Event]struct{})
	h.subscribersMu.Unlock()

	log.Info().Msg("Camera hub closed")
}

// --- device.EventSubscriber ---

func (h *Hub) Subscribe() chan device.Event {
	ch := make(chan device.Event, 64)
	h.subscribersMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subscribersMu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan device.Event) {
	h.subscribersMu.Lock()
	defer h.subscribersMu.Unlock()

	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// publishEvent never blocks; slow subscribers miss events.
func (h *Hub) publishEvent(evt device.Event) {
	h.subscribersMu.Lock()
	defer h.subscribersMu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
