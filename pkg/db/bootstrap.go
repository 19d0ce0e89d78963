package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultProfile = "default"
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8080
)

// Bootstrap creates the default profile and API server on first run.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	p := &Profile{Name: DefaultProfile, Timezone: detectTimezone(), IsActive: true}
	if err := db.Profiles().Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create default profile: %w", err)
	}

	a := &APIServer{ProfileID: p.ID, Host: DefaultAPIHost, Port: DefaultAPIPort}
	if err := db.APIServers().Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create default API server: %w", err)
	}
	return nil
}

// NeedsBootstrap reports whether no profile exists yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// detectTimezone prefers $TZ, then /etc/timezone, then the /etc/localtime
// symlink target.
func detectTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}

	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}

	if link, err := os.Readlink("/etc/localtime"); err == nil {
		if _, tz, ok := strings.Cut(link, "zoneinfo/"); ok {
			return tz
		}
	}
	return "UTC"
}
