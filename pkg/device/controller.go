package device

import "context"

// Controller is what the API and MCP surfaces need from the camera bridge.
type Controller interface {
	// ListDevices returns all configured cameras
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single camera by ID
	GetDevice(ctx context.Context, id string) (*Device, error)

	// AddDevice validates access to a camera, stores it and starts listening
	AddDevice(ctx context.Context, cfg CameraConfig) (*Device, error)

	// RenameDevice changes a camera's display name
	RenameDevice(ctx context.Context, id, newName string) error

	// RemoveDevice stops a camera's listener and forgets it
	RemoveDevice(ctx context.Context, id string) error

	// RefreshDevice re-reads the camera attributes
	RefreshDevice(ctx context.Context, id string) (*Device, error)

	// GetDeviceState returns the binary sensor states
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// GetDeviceEvents returns the raw latest event stream values
	GetDeviceEvents(ctx context.Context, id string) (map[string]string, error)

	// ListSensors returns the binary sensors of a camera
	ListSensors(ctx context.Context, id string) ([]Sensor, error)

	// IsConnected returns true if the bridge is running
	IsConnected() bool

	// Close stops every camera
	Close()
}

// EventSubscriber fans camera events out to interested clients.
type EventSubscriber interface {
	// Subscribe returns a channel that receives camera events
	Subscribe() chan Event

	// Unsubscribe removes a subscription and closes its channel
	Unsubscribe(ch chan Event)
}
