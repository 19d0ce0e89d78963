// Package discovery finds NIPCA cameras on the local network with SSDP.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/koron/go-ssdp"
	"github.com/rs/zerolog/log"
)

// Discoverer returns candidate UPnP device description URLs.
type Discoverer interface {
	Discover(ctx context.Context, deviceType string) ([]string, error)
}

// SSDPDiscoverer sends an M-SEARCH and collects the answers.
type SSDPDiscoverer struct {
	Wait      time.Duration // how long to listen for answers
	LocalAddr string        // optional interface address to search from
}

// NewSSDPDiscoverer waits three seconds for answers on all interfaces.
func NewSSDPDiscoverer() *SSDPDiscoverer {
	return &SSDPDiscoverer{Wait: 3 * time.Second}
}

func (d *SSDPDiscoverer) Discover(ctx context.Context, deviceType string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	waitSec := int(d.Wait / time.Second)
	if waitSec < 1 {
		waitSec = 1
	}

	type result struct {
		services []ssdp.Service
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		services, err := ssdp.Search(deviceType, waitSec, d.LocalAddr)
		ch <- result{services, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("ssdp search: %w", r.err)
		}
		locations := make([]string, 0, len(r.services))
		for _, s := range r.services {
			if s.Type != deviceType {
				continue
			}
			locations = append(locations, s.Location)
		}
		locations = Dedup(locations)
		log.Debug().Str("type", deviceType).Int("found", len(locations)).Msg("SSDP search finished")
		return locations, nil
	}
}

// Dedup drops empty and repeated locations and sorts the rest.
func Dedup(locations []string) []string {
	seen := make(map[string]struct{}, len(locations))
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// Static returns fixed locations. Used when multicast is unavailable.
type Static []string

func (s Static) Discover(context.Context, string) ([]string, error) {
	return Dedup(s), nil
}
