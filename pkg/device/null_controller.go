package device

import "context"

// NullController is used when the bridge cannot start. Reads return nothing
// and writes fail with ErrNotConnected.
type NullController struct{}

func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) AddDevice(ctx context.Context, cfg CameraConfig) (*Device, error) {
	return nil, ErrNotConnected
}

func (c *NullController) RenameDevice(ctx context.Context, id, newName string) error {
	return ErrNotConnected
}

func (c *NullController) RemoveDevice(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) RefreshDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotConnected
}

func (c *NullController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) GetDeviceEvents(ctx context.Context, id string) (map[string]string, error) {
	return nil, ErrNotConnected
}

func (c *NullController) ListSensors(ctx context.Context, id string) ([]Sensor, error) {
	return nil, ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber hands out channels that never receive.
type NullEventSubscriber struct{}

func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan Event {
	return make(chan Event)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}
