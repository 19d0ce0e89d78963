package nipca

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates a network operation exceeded the configured bound
	ErrTimeout = errors.New("nipca: operation timed out")

	// ErrStreamClosed indicates the camera dropped the notification stream mid-read
	ErrStreamClosed = errors.New("nipca: stream closed by remote")

	// ErrConnection indicates the camera could not be reached at the network level
	ErrConnection = errors.New("nipca: connection failed")
)

// UnreachableError is returned when a camera answers with a non-success status.
type UnreachableError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("nipca: %s returned %d %s", e.URL, e.StatusCode, e.Reason)
}

// DiscoveryError is returned when the UPnP device description is malformed or
// does not carry a presentation URL.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("nipca: invalid device description at %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
