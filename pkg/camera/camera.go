package camera

import (
	"context"
	"sync"
	"time"

	"github.com/urmzd/nipcam/pkg/db"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// entry is a configured camera and, once set up, its adapter and coordinator.
// setupMu is held across setup, refresh and teardown so at most one
// generation of the adapter is live.
type entry struct {
	setupMu sync.Mutex

	mu       sync.RWMutex
	record   db.Camera
	device   *nipca.Device
	sensors  []nipca.SensorDescriptor
	snapshot map[string]string
	setupErr error

	cancel context.CancelFunc
	done   chan struct{}
}

func (e *entry) available() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device != nil && e.setupErr == nil
}

func (e *entry) update(events map[string]string) {
	e.mu.Lock()
	e.snapshot = events
	e.mu.Unlock()
}

// shutdown stops the camera once any setup in flight has finished.
func (e *entry) shutdown() {
	e.setupMu.Lock()
	defer e.setupMu.Unlock()
	e.stop()
}

// stop ends the coordinator and the listener.
func (e *entry) stop() {
	e.mu.Lock()
	cancel, done, d := e.cancel, e.done, e.device
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if d != nil {
		d.Close()
	}
}

// view renders the camera for the API.
func (e *entry) view() device.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := device.Device{
		ID:       e.record.ID,
		Name:     e.record.Name,
		Type:     device.DeviceTypeCamera,
		Protocol: device.ProtocolNIPCA,
		URL:      e.record.URL,
		Sensors:  []device.Sensor{},
		Listener: "absent",
	}
	if e.device == nil {
		return v
	}

	attrs := e.device.Attributes()
	v.Manufacturer = attrs["brand"]
	v.Model = attrs["model"]
	v.Firmware = attrs["version"]
	v.MACAddress = attrs["macaddr"]
	v.BaseURL = e.device.BaseURL()
	v.MJPEGURL = e.device.MJPEGURL()
	v.StillImageURL = e.device.StillImageURL()
	v.MotionDetection = e.device.MotionDetectionEnabled()
	v.Available = e.setupErr == nil
	if l := e.device.Listener(); l != nil {
		v.Listener = l.State().String()
	}
	v.Sensors = buildSensors(attrs, v.MotionDetection, e.snapshot, e.sensors)
	return v
}

func (e *entry) state() device.DeviceState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state := make(device.DeviceState, len(e.sensors))
	if e.device == nil {
		return state
	}
	motion := e.device.MotionDetectionEnabled()
	for _, s := range e.sensors {
		state[s.Name] = sensorState(motion, e.snapshot, s.Name)
	}
	return state
}

func (e *entry) events() map[string]string {
	e.mu.RLock()
	d := e.device
	e.mu.RUnlock()

	if d == nil {
		return map[string]string{}
	}
	return d.Events()
}

func toNipcaConfig(rec db.Camera, timeout time.Duration) nipca.Config {
	mode, err := nipca.ParseAuthMode(rec.AuthMode)
	if err != nil {
		mode = nipca.AuthBasic
	}
	return nipca.Config{
		Name:         rec.Name,
		URL:          rec.URL,
		Username:     rec.Username,
		Password:     rec.Password,
		AuthMode:     mode,
		VerifySSL:    rec.VerifySSL,
		PollInterval: time.Duration(rec.PollInterval) * time.Second,
		Timeout:      timeout,
	}
}
