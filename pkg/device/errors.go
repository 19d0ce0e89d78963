package device

import "errors"

var (
	// ErrNotFound indicates a camera was not found
	ErrNotFound = errors.New("device not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the bridge is not running
	ErrNotConnected = errors.New("controller not connected")

	// ErrUnsupported indicates an operation is not supported by the camera
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates a payload failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrInvalidAuth indicates the camera rejected the configured credentials
	ErrInvalidAuth = errors.New("invalid authentication")

	// ErrUnavailable indicates the camera could not be reached
	ErrUnavailable = errors.New("device unavailable")

	// ErrAlreadyExists indicates a camera with the same URL is configured
	ErrAlreadyExists = errors.New("device already configured")
)
