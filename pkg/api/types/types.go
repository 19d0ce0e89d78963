package types

import (
	"time"

	"github.com/urmzd/nipcam/pkg/device"
)

// --- Request DTOs ---

// CreateCameraRequest is the request body for POST /cameras
type CreateCameraRequest struct {
	Name                string `json:"name,omitempty" example:"Workshop"`
	URL                 string `json:"url" example:"http://192.168.1.20/description.xml"`
	Username            string `json:"username,omitempty" example:"admin"`
	Password            string `json:"password,omitempty"`
	AuthMode            string `json:"auth_mode,omitempty" enums:"basic,digest,none"`
	VerifySSL           bool   `json:"verify_ssl,omitempty"`
	PollIntervalSeconds int    `json:"poll_interval_seconds,omitempty" example:"10"`
}

// CameraConfig converts the request to the controller's configuration type.
func (r CreateCameraRequest) CameraConfig() device.CameraConfig {
	return device.CameraConfig{
		Name:                r.Name,
		URL:                 r.URL,
		Username:            r.Username,
		Password:            r.Password,
		AuthMode:            r.AuthMode,
		VerifySSL:           r.VerifySSL,
		PollIntervalSeconds: r.PollIntervalSeconds,
	}
}

// UpdateCameraRequest is the request body for PATCH /cameras/:id
type UpdateCameraRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Cameras    int       `json:"cameras"`
	Available  int       `json:"available"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListCamerasResponse is returned from GET /cameras
type ListCamerasResponse struct {
	Cameras []device.Device `json:"cameras"`
	Count   int             `json:"count"`
}

// CameraResponse is returned from GET /cameras/:id
type CameraResponse struct {
	Camera device.Device `json:"camera"`
}

// StateResponse is returned from GET /cameras/:id/state
type StateResponse struct {
	Camera    string         `json:"camera"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// SensorsResponse is returned from GET /cameras/:id/sensors
type SensorsResponse struct {
	Camera  string          `json:"camera"`
	Sensors []device.Sensor `json:"sensors"`
	Count   int             `json:"count"`
}

// EventsResponse is returned from GET /cameras/:id/events
type EventsResponse struct {
	Camera    string            `json:"camera"`
	Events    map[string]string `json:"events"`
	Timestamp time.Time         `json:"timestamp"`
}

// DiscoveredCamera is a camera answering the SSDP search
type DiscoveredCamera struct {
	URL        string `json:"url"`
	Configured bool   `json:"configured"`
}

// DiscoveryResponse is returned from GET /discovery
type DiscoveryResponse struct {
	Cameras []DiscoveredCamera `json:"cameras"`
	Count   int                `json:"count"`
}
