package nipca

import "time"

// CGI endpoints relative to the device presentation URL.
const (
	commonInfoPath   = "/common/info.cgi"
	streamInfoPath   = "/config/stream_info.cgi"
	stillImagePath   = "/image/jpeg.cgi"
	notifyStreamPath = "/config/notify_stream.cgi"
)

// motionInfoPaths lists motion configuration endpoints in the order they are
// tried. Firmware revisions disagree on the location; some D-Link models only
// answer on the second one.
var motionInfoPaths = []string{
	"/config/motion.cgi",
	"/motion.cgi",
}

const (
	// DeviceTypeBasic is the UPnP device type NIPCA cameras announce.
	DeviceTypeBasic = "urn:schemas-upnp-org:device:Basic:1"

	// DefaultName is used when a camera is configured without a name.
	DefaultName = "NIPCA Custom"

	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 10 * time.Second
)
