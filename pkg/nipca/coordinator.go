package nipca

import (
	"context"
	"time"

	"github.com/urmzd/nipcam/pkg/metrics"
)

// Coordinator polls a device's events on a fixed interval and brings the
// listener back when it stopped on its own.
type Coordinator struct {
	device   *Device
	interval time.Duration
	onUpdate func(map[string]string)
}

// NewCoordinator polls d at its configured interval. onUpdate, when set,
// receives every snapshot.
func NewCoordinator(d *Device, onUpdate func(map[string]string)) *Coordinator {
	return &Coordinator{
		device:   d,
		interval: d.cfg.pollInterval(),
		onUpdate: onUpdate,
	}
}

// Interval is the time between polls.
func (c *Coordinator) Interval() time.Duration {
	return c.interval
}

// NeedsRestart reports whether a listener should be started in place of l:
// there is none, or it finished without being cancelled.
func NeedsRestart(l *Listener) bool {
	if l == nil {
		return true
	}
	return l.Finished() && l.State() != ListenerCancelled
}

// PollEvents restarts the listener if needed and returns the current events.
func (c *Coordinator) PollEvents(ctx context.Context) map[string]string {
	metrics.Polls.WithLabelValues(c.device.Name()).Inc()

	if prev := c.device.Listener(); NeedsRestart(prev) {
		if prev != nil {
			c.device.log.Info().
				Str("previous", prev.State().String()).
				Uint64("generation", prev.Generation()).
				Msg("Restarting NIPCA listener")
		}
		c.device.StartListening(ctx)
	}
	return c.device.Events()
}

// Run polls immediately and then on every tick until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		events := c.PollEvents(ctx)
		if c.onUpdate != nil {
			c.onUpdate(events)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
