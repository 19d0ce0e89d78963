package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/nipcam/pkg/db"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/nipca"
)

const infoBody = `model=DCS-2132LB1
brand=D-Link
version=1.08
name=Workshop
macaddr=B0:C5:54:16:A5:21
inputs=1
outputs=0
pir=yes
mic=no
`

const streamBody = `vprofileurl1=/video/mjpg.cgi?profileid=1
`

const motionBody = `enable=yes
sensitivity=75
`

const notifyLines = "md1=off\r\npir=off\r\nmd1=on\r\n"

// testCamera is a NIPCA camera on httptest protected by basic auth.
type testCamera struct {
	*httptest.Server

	mu          sync.Mutex
	description bool
	delay       time.Duration
	hold        bool
	openStreams int
}

func newTestCamera(t *testing.T) *testCamera {
	t.Helper()

	c := &testCamera{description: true}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(func() {
		c.CloseClientConnections()
		c.Close()
	})
	return c
}

func (c *testCamera) setDescription(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = ok
}

// holdStreams keeps notify streams open until the client goes away.
func (c *testCamera) holdStreams() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hold = true
}

// delayDescription slows down the device description response.
func (c *testCamera) delayDescription(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

func (c *testCamera) streams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openStreams
}

func (c *testCamera) serveNotify(w http.ResponseWriter, r *http.Request, hold bool) {
	fmt.Fprint(w, notifyLines)
	if !hold {
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	c.mu.Lock()
	c.openStreams++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.openStreams--
		c.mu.Unlock()
	}()
	<-r.Context().Done()
}

func (c *testCamera) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "admin" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	c.mu.Lock()
	description, delay, hold := c.description, c.delay, c.hold
	c.mu.Unlock()

	switch r.URL.Path {
	case "/description.xml":
		time.Sleep(delay)
		if !description {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<root><device><deviceType>%s</deviceType><presentationURL>%s/</presentationURL></device></root>",
			nipca.DeviceTypeBasic, c.URL)
	case "/common/info.cgi":
		fmt.Fprint(w, infoBody)
	case "/config/stream_info.cgi":
		fmt.Fprint(w, streamBody)
	case "/config/motion.cgi":
		fmt.Fprint(w, motionBody)
	case "/image/jpeg.cgi":
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
	case "/config/notify_stream.cgi":
		c.serveNotify(w, r, hold)
	default:
		http.NotFound(w, r)
	}
}

func (c *testCamera) cameraConfig() device.CameraConfig {
	return device.CameraConfig{
		Name:                "workshop",
		URL:                 c.URL + "/description.xml",
		Username:            "admin",
		Password:            "secret",
		AuthMode:            "basic",
		PollIntervalSeconds: 1,
	}
}

type publishedMessage struct {
	topic   string
	payload string
	retain  bool
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *fakePublisher) Publish(topic string, payload []byte, retain bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic, string(payload), retain})
	return nil
}

func (p *fakePublisher) last(topic string) (publishedMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].topic == topic {
			return p.messages[i], true
		}
	}
	return publishedMessage{}, false
}

type testEnv struct {
	store     db.CameraStore
	profileID int64
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "nipcam.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx))
	require.NoError(t, database.Bootstrap(ctx))

	cfg, err := database.ActiveConfig(ctx)
	require.NoError(t, err)
	return testEnv{store: database.Cameras(), profileID: cfg.Profile.ID}
}

func (env testEnv) seed(t *testing.T, cfg device.CameraConfig) string {
	t.Helper()

	rec := db.Camera{
		ID:           "cam-" + cfg.Name,
		ProfileID:    env.profileID,
		Name:         cfg.Name,
		URL:          cfg.URL,
		Username:     cfg.Username,
		Password:     cfg.Password,
		AuthMode:     cfg.AuthMode,
		PollInterval: cfg.PollIntervalSeconds,
	}
	require.NoError(t, env.store.Create(context.Background(), &rec))
	return rec.ID
}

func startHub(t *testing.T, env testEnv, opts ...Option) *Hub {
	t.Helper()

	opts = append([]Option{WithTimeout(2 * time.Second), WithRetryInterval(time.Hour)}, opts...)
	h := NewHub(env.store, env.profileID, opts...)
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(h.Close)
	return h
}

func TestHubNotStarted(t *testing.T) {
	env := newTestEnv(t)
	h := NewHub(env.store, env.profileID)

	assert.False(t, h.IsConnected())
	_, err := h.GetDevice(context.Background(), "x")
	assert.ErrorIs(t, err, device.ErrNotConnected)
	_, err = h.AddDevice(context.Background(), device.CameraConfig{URL: "http://x"})
	assert.ErrorIs(t, err, device.ErrNotConnected)
}

func TestHubStartAndEvents(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	id := env.seed(t, cam.cameraConfig())

	pub := &fakePublisher{}
	h := startHub(t, env, WithPublisher(pub))
	ctx := context.Background()

	dev, err := h.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.True(t, dev.Available)
	assert.Equal(t, "D-Link", dev.Manufacturer)
	assert.Equal(t, "DCS-2132LB1", dev.Model)
	assert.Equal(t, "1.08", dev.Firmware)
	assert.Equal(t, cam.URL, dev.BaseURL)
	assert.Equal(t, cam.URL+"/video/mjpg.cgi?profileid=1", dev.MJPEGURL)
	assert.Equal(t, cam.URL+"/image/jpeg.cgi", dev.StillImageURL)
	assert.True(t, dev.MotionDetection)

	keys := make([]string, 0, len(dev.Sensors))
	for _, s := range dev.Sensors {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"md1", "pir", "input1"}, keys)

	assert.Eventually(t, func() bool {
		state, err := h.GetDeviceState(ctx, id)
		return err == nil && state["md1"] == "on" && state["pir"] == "off"
	}, 5*time.Second, 50*time.Millisecond)

	events, err := h.GetDeviceEvents(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "on", events["md1"])

	msg, ok := pub.last("nipca/" + id + "/md1")
	require.True(t, ok)
	assert.Equal(t, "on", msg.payload)
	assert.True(t, msg.retain)

	sensors, err := h.ListSensors(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "B0:C5:54:16:A5:21_md1_sensor", sensors[0].ID)
	assert.Equal(t, "Workshop md1 sensor", sensors[0].Name)
}

func TestHubAddDevice(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	h := startHub(t, env)
	ctx := context.Background()

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	bad := cam.cameraConfig()
	bad.Password = "wrong"
	_, err := h.AddDevice(ctx, bad)
	assert.ErrorIs(t, err, device.ErrInvalidAuth)

	dev, err := h.AddDevice(ctx, cam.cameraConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, dev.ID)
	assert.Equal(t, "workshop", dev.Name)
	assert.True(t, dev.Available)

	select {
	case evt := <-sub:
		assert.Equal(t, device.EventDeviceAdded, evt.Type)
		assert.Equal(t, dev.ID, evt.DeviceID)
	case <-time.After(5 * time.Second):
		t.Fatal("no device_added event")
	}

	_, err = h.AddDevice(ctx, cam.cameraConfig())
	assert.ErrorIs(t, err, device.ErrAlreadyExists)

	stored, err := env.store.Get(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, "basic", stored.AuthMode)
	assert.Equal(t, 1, stored.PollInterval)
}

func TestHubAddDeviceDefaults(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	h := startHub(t, env)

	cfg := cam.cameraConfig()
	cfg.Name = ""
	cfg.AuthMode = ""
	cfg.PollIntervalSeconds = 0

	dev, err := h.AddDevice(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, nipca.DefaultName, dev.Name)

	stored, err := env.store.Get(context.Background(), dev.ID)
	require.NoError(t, err)
	assert.Equal(t, "basic", stored.AuthMode)
	assert.Equal(t, 10, stored.PollInterval)
}

func TestHubAddDeviceErrors(t *testing.T) {
	env := newTestEnv(t)
	h := startHub(t, env)
	ctx := context.Background()

	_, err := h.AddDevice(ctx, device.CameraConfig{})
	assert.ErrorIs(t, err, device.ErrValidation)

	_, err = h.AddDevice(ctx, device.CameraConfig{URL: "http://x", AuthMode: "ntlm"})
	assert.ErrorIs(t, err, device.ErrValidation)

	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()

	_, err = h.AddDevice(ctx, device.CameraConfig{URL: url + "/description.xml"})
	assert.ErrorIs(t, err, device.ErrUnavailable)
}

func TestHubRenameAndRemove(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	id := env.seed(t, cam.cameraConfig())
	h := startHub(t, env)
	ctx := context.Background()

	require.NoError(t, h.RenameDevice(ctx, id, "garage"))
	dev, err := h.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "garage", dev.Name)

	stored, err := env.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "garage", stored.Name)

	assert.ErrorIs(t, h.RenameDevice(ctx, id, " "), device.ErrValidation)
	assert.ErrorIs(t, h.RenameDevice(ctx, "missing", "x"), device.ErrNotFound)

	require.NoError(t, h.RemoveDevice(ctx, id))
	_, err = h.GetDevice(ctx, id)
	assert.ErrorIs(t, err, device.ErrNotFound)
	_, err = env.store.Get(ctx, id)
	assert.ErrorIs(t, err, db.ErrCameraNotFound)

	assert.ErrorIs(t, h.RemoveDevice(ctx, id), device.ErrNotFound)
}

func TestHubUnavailableCameraRecovers(t *testing.T) {
	cam := newTestCamera(t)
	cam.setDescription(false)
	env := newTestEnv(t)
	id := env.seed(t, cam.cameraConfig())
	h := startHub(t, env)
	ctx := context.Background()

	dev, err := h.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.False(t, dev.Available)
	assert.Equal(t, "absent", dev.Listener)

	_, err = h.GetDeviceState(ctx, id)
	assert.ErrorIs(t, err, device.ErrUnavailable)

	assert.Equal(t, 0, h.Reload(ctx))

	cam.setDescription(true)
	assert.Equal(t, 1, h.Reload(ctx))

	dev, err = h.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.True(t, dev.Available)
}

func TestHubRefreshDevice(t *testing.T) {
	cam := newTestCamera(t)
	cam.setDescription(false)
	env := newTestEnv(t)
	id := env.seed(t, cam.cameraConfig())
	h := startHub(t, env)
	ctx := context.Background()

	_, err := h.RefreshDevice(ctx, id)
	assert.ErrorIs(t, err, device.ErrUnavailable)

	cam.setDescription(true)
	dev, err := h.RefreshDevice(ctx, id)
	require.NoError(t, err)
	assert.True(t, dev.Available)

	dev, err = h.RefreshDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "D-Link", dev.Manufacturer)
}

// newSlowCamera returns a started hub whose only camera is unavailable and
// answers again, slowly, once the test begins.
func newSlowCamera(t *testing.T, delay time.Duration) (*Hub, *testCamera, string) {
	t.Helper()

	cam := newTestCamera(t)
	cam.setDescription(false)
	cam.holdStreams()
	env := newTestEnv(t)
	id := env.seed(t, cam.cameraConfig())
	h := startHub(t, env)

	cam.setDescription(true)
	cam.delayDescription(delay)
	return h, cam, id
}

func TestHubConcurrentSetupKeepsOneStream(t *testing.T) {
	h, cam, id := newSlowCamera(t, 200*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.RefreshDevice(ctx, id)
		}()
		go func() {
			defer wg.Done()
			h.Reload(ctx)
		}()
	}
	wg.Wait()

	dev, err := h.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.True(t, dev.Available)

	require.Eventually(t, func() bool { return cam.streams() == 1 }, 2*time.Second, 20*time.Millisecond)
	// Outlast a poll so stale coordinators would have restarted their listeners.
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, 1, cam.streams(), "open notify streams for one camera")
}

func TestHubRemoveDuringSetup(t *testing.T) {
	h, cam, id := newSlowCamera(t, 300*time.Millisecond)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := h.RefreshDevice(ctx, id)
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, h.RemoveDevice(ctx, id))
	assert.Error(t, <-done)

	_, err := h.GetDevice(ctx, id)
	assert.ErrorIs(t, err, device.ErrNotFound)
	assert.Never(t, func() bool { return cam.streams() > 0 }, 500*time.Millisecond, 20*time.Millisecond)
}

func TestHubCloseDuringSetup(t *testing.T) {
	h, cam, id := newSlowCamera(t, 300*time.Millisecond)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := h.RefreshDevice(ctx, id)
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)

	h.Close()
	assert.ErrorIs(t, <-done, device.ErrNotConnected)
	assert.Never(t, func() bool { return cam.streams() > 0 }, 500*time.Millisecond, 20*time.Millisecond)
}

func TestHubImport(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	h := startHub(t, env)
	ctx := context.Background()

	cfg := cam.cameraConfig()
	require.NoError(t, h.Import(ctx, []device.CameraConfig{cfg}))
	require.NoError(t, h.Import(ctx, []device.CameraConfig{cfg}), "import is idempotent")

	devices, err := h.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].Available)

	cfg.Name = "renamed"
	require.NoError(t, h.Import(ctx, []device.CameraConfig{cfg}))
	devices, err = h.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "renamed", devices[0].Name)

	err = h.Import(ctx, []device.CameraConfig{{URL: "http://x", AuthMode: "ntlm"}})
	assert.ErrorIs(t, err, device.ErrValidation)
}

func TestHubClose(t *testing.T) {
	cam := newTestCamera(t)
	env := newTestEnv(t)
	env.seed(t, cam.cameraConfig())

	notifier := nipca.NewShutdownNotifier()
	h := NewHub(env.store, env.profileID, WithShutdownNotifier(notifier))
	require.NoError(t, h.Start(context.Background()))

	sub := h.Subscribe()
	h.Close()
	h.Close()

	assert.False(t, h.IsConnected())
	assert.True(t, notifier.Notified())
	for range sub {
	}
}

func TestClassifyAccessError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &nipca.UnreachableError{StatusCode: http.StatusUnauthorized}, device.ErrInvalidAuth},
		{"forbidden", &nipca.UnreachableError{StatusCode: http.StatusForbidden}, device.ErrInvalidAuth},
		{"not found", &nipca.UnreachableError{StatusCode: http.StatusNotFound}, device.ErrUnavailable},
		{"bad description", &nipca.DiscoveryError{URL: "u", Err: errors.New("eof")}, device.ErrValidation},
		{"timeout", nipca.ErrTimeout, device.ErrTimeout},
		{"connection", nipca.ErrConnection, device.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAccessError(fmt.Errorf("check: %w", tt.err))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
