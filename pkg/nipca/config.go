package nipca

import "time"

// Config identifies a camera and how to talk to it. It is immutable once a
// Device has been built from it.
type Config struct {
	Name         string
	URL          string // UPnP device description location
	Username     string
	Password     string
	AuthMode     AuthMode
	VerifySSL    bool
	PollInterval time.Duration
	Timeout      time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}

func (c Config) name() string {
	if c.Name == "" {
		return DefaultName
	}
	return c.Name
}

// authMode reports the effective mode. Credentials are only sent when both
// username and password are set.
func (c Config) authMode() AuthMode {
	if c.Username == "" || c.Password == "" {
		return AuthNone
	}
	if c.AuthMode == "" {
		return AuthBasic
	}
	return c.AuthMode
}
