package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API listen address, defaulting to 0.0.0.0:8080.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return net.JoinHostPort(DefaultAPIHost, strconv.Itoa(DefaultAPIPort))
	}
	return c.APIServer.Address()
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// ActiveConfig loads the configuration of the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}

	return &Config{Profile: profile, APIServer: apiServer}, nil
}

// SetAPIAddress persists addr (host:port) for the active profile.
func (db *DB) SetAPIAddress(ctx context.Context, profileID int64, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid API address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid API port %q", portStr)
	}
	if host == "" {
		host = DefaultAPIHost
	}
	return db.APIServers().Upsert(ctx, &APIServer{ProfileID: profileID, Host: host, Port: port})
}
