package nipca

import (
	"encoding/xml"
	"errors"
	"strings"
)

// deviceDescription is the subset of a UPnP device description we read.
type deviceDescription struct {
	XMLName xml.Name `xml:"root"`
	Device  struct {
		DeviceType      string `xml:"deviceType"`
		FriendlyName    string `xml:"friendlyName"`
		PresentationURL string `xml:"presentationURL"`
	} `xml:"device"`
}

var errNoPresentationURL = errors.New("missing root/device/presentationURL")

// parsePresentationURL extracts the camera base URL from the device
// description served at url.
func parsePresentationURL(url, body string) (string, error) {
	var desc deviceDescription
	if err := xml.Unmarshal([]byte(body), &desc); err != nil {
		return "", &DiscoveryError{URL: url, Err: err}
	}

	presentation := strings.TrimRight(strings.TrimSpace(desc.Device.PresentationURL), "/")
	if presentation == "" {
		return "", &DiscoveryError{URL: url, Err: errNoPresentationURL}
	}
	return presentation, nil
}
