package mcp

import "github.com/urmzd/nipcam/pkg/device"

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Controller string `json:"controller" jsonschema:"description=Camera bridge status"`
	Cameras    int    `json:"cameras" jsonschema:"description=Configured cameras"`
	Available  int    `json:"available" jsonschema:"description=Cameras currently reachable"`
	Timestamp  string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// ListCamerasOutput is the output for the list_cameras tool
type ListCamerasOutput struct {
	Cameras []CameraInfo `json:"cameras" jsonschema:"description=Configured cameras"`
	Count   int          `json:"count" jsonschema:"description=Total number of cameras"`
}

// CameraInfo represents a camera in tool outputs
type CameraInfo struct {
	ID              string         `json:"id" jsonschema:"description=Camera ID"`
	Name            string         `json:"name" jsonschema:"description=Display name"`
	Manufacturer    string         `json:"manufacturer,omitempty" jsonschema:"description=Camera brand"`
	Model           string         `json:"model,omitempty" jsonschema:"description=Camera model"`
	Firmware        string         `json:"firmware,omitempty" jsonschema:"description=Firmware version"`
	URL             string         `json:"url" jsonschema:"description=UPnP device description URL"`
	MJPEGURL        string         `json:"mjpeg_url,omitempty" jsonschema:"description=MJPEG stream URL"`
	StillImageURL   string         `json:"still_image_url,omitempty" jsonschema:"description=Still image URL"`
	MotionDetection bool           `json:"motion_detection" jsonschema:"description=Whether motion detection is enabled on the camera"`
	Available       bool           `json:"available" jsonschema:"description=Whether the camera answered at setup"`
	Listener        string         `json:"listener" jsonschema:"description=Event stream listener state"`
	State           map[string]any `json:"state,omitempty" jsonschema:"description=Sensor states"`
}

// CameraToInfo converts a device.Device to CameraInfo
func CameraToInfo(d *device.Device) CameraInfo {
	return CameraInfo{
		ID:              d.ID,
		Name:            d.Name,
		Manufacturer:    d.Manufacturer,
		Model:           d.Model,
		Firmware:        d.Firmware,
		URL:             d.URL,
		MJPEGURL:        d.MJPEGURL,
		StillImageURL:   d.StillImageURL,
		MotionDetection: d.MotionDetection,
		Available:       d.Available,
		Listener:        d.Listener,
	}
}

// GetCameraOutput is the output for the get_camera, refresh_camera and
// add_camera tools
type GetCameraOutput struct {
	Camera  CameraInfo      `json:"camera" jsonschema:"description=Camera information"`
	Sensors []device.Sensor `json:"sensors" jsonschema:"description=Binary sensors"`
}

// GetCameraStateOutput is the output for the get_camera_state tool
type GetCameraStateOutput struct {
	CameraID string         `json:"camera_id" jsonschema:"description=Camera ID"`
	State    map[string]any `json:"state" jsonschema:"description=Sensor states keyed by sensor key"`
}

// GetCameraEventsOutput is the output for the get_camera_events tool
type GetCameraEventsOutput struct {
	CameraID string            `json:"camera_id" jsonschema:"description=Camera ID"`
	Events   map[string]string `json:"events" jsonschema:"description=Latest value per event key"`
}

// ActionOutput is the output for tools that only report success
type ActionOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the operation succeeded"`
	Message string `json:"message" jsonschema:"description=Human-readable result message"`
}

// DiscoverCamerasOutput is the output for the discover_cameras tool
type DiscoverCamerasOutput struct {
	Cameras []DiscoveredCamera `json:"cameras" jsonschema:"description=Cameras answering the SSDP search"`
	Count   int                `json:"count" jsonschema:"description=Number of cameras found"`
}

// DiscoveredCamera is a camera location found by discovery
type DiscoveredCamera struct {
	URL        string `json:"url" jsonschema:"description=UPnP device description URL"`
	Configured bool   `json:"configured" jsonschema:"description=Whether the camera is already configured"`
}
