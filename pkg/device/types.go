package device

import "time"

// Device is the API view of a configured camera.
type Device struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Protocol        string   `json:"protocol"`
	Manufacturer    string   `json:"manufacturer"`
	Model           string   `json:"model"`
	Firmware        string   `json:"firmware,omitempty"`
	MACAddress      string   `json:"mac_address,omitempty"`
	URL             string   `json:"url"`      // UPnP device description location
	BaseURL         string   `json:"base_url"` // resolved presentation URL
	MJPEGURL        string   `json:"mjpeg_url"`
	StillImageURL   string   `json:"still_image_url"`
	MotionDetection bool     `json:"motion_detection"`
	Available       bool     `json:"available"`
	Listener        string   `json:"listener"` // event stream listener state
	Sensors         []Sensor `json:"sensors"`
}

// Sensor is a binary sensor exposed by a camera.
type Sensor struct {
	ID         string            `json:"id"`   // stable unique id
	Key        string            `json:"key"`  // event stream key, e.g. md1
	Name       string            `json:"name"` // display name
	Class      string            `json:"class,omitempty"`
	State      string            `json:"state"` // on, off or unknown
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Sensor states.
const (
	StateOn      = "on"
	StateOff     = "off"
	StateUnknown = "unknown"
)

// DeviceState is the current sensor state of a camera keyed by sensor key.
type DeviceState map[string]any

// CameraConfig is the user supplied configuration of a camera.
type CameraConfig struct {
	Name                string `json:"name"`
	URL                 string `json:"url"`
	Username            string `json:"username,omitempty"`
	Password            string `json:"password,omitempty"`
	AuthMode            string `json:"auth_mode"`
	VerifySSL           bool   `json:"verify_ssl"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

// Event is published to subscribers when something about a camera changes.
type Event struct {
	Type      string    `json:"type"`
	DeviceID  string    `json:"device_id"`
	Key       string    `json:"key,omitempty"`
	Value     string    `json:"value,omitempty"`
	Device    *Device   `json:"device,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventSensorChanged = "sensor_changed"
	EventDeviceAdded   = "device_added"
	EventDeviceRemoved = "device_removed"
	EventDeviceUpdated = "device_updated"
)

const (
	ProtocolNIPCA    = "nipca"
	DeviceTypeCamera = "camera"
)
