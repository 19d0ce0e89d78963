package nipca

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/urmzd/nipcam/pkg/metrics"
)

// ListenerState is the lifecycle state of an event stream listener.
type ListenerState int

const (
	ListenerRunning ListenerState = iota
	ListenerSucceeded
	ListenerCancelled
	ListenerFailed
)

func (s ListenerState) String() string {
	switch s {
	case ListenerRunning:
		return "running"
	case ListenerSucceeded:
		return "succeeded"
	case ListenerCancelled:
		return "cancelled"
	case ListenerFailed:
		return "failed"
	default:
		return fmt.Sprintf("ListenerState(%d)", int(s))
	}
}

// Listener is the handle of one event stream goroutine. A new handle with a
// higher generation replaces it on every start; a handle never returns to
// running once finished.
type Listener struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}

	mu    sync.RWMutex
	state ListenerState
	err   error
}

// Generation numbers listeners of the same device from 1 upwards.
func (l *Listener) Generation() uint64 {
	return l.generation
}

func (l *Listener) State() ListenerState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err is the failure that ended the listener, nil unless State is failed.
func (l *Listener) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Done is closed once the listener goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Finished reports whether the goroutine has exited.
func (l *Listener) Finished() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Cancel asks the listener to stop without waiting for it.
func (l *Listener) Cancel() {
	l.cancel()
}

// Wait blocks until the listener exits or ctx is done and returns the final
// state.
func (l *Listener) Wait(ctx context.Context) (ListenerState, error) {
	select {
	case <-l.done:
		return l.State(), nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}

func (l *Listener) finish(state ListenerState, err error) {
	l.mu.Lock()
	l.state = state
	l.err = err
	l.mu.Unlock()
}

// Listener returns the current handle, nil if none was ever started.
func (d *Device) Listener() *Listener {
	d.listenerMu.Lock()
	defer d.listenerMu.Unlock()
	return d.listener
}

// StartListening starts consuming the notification stream in the background.
// If a listener is still running it is returned unchanged. The listener is
// not bound to ctx's cancellation; stop it with CancelListening.
func (d *Device) StartListening(ctx context.Context) *Listener {
	d.listenerMu.Lock()
	defer d.listenerMu.Unlock()

	if d.closed || (d.listener != nil && !d.listener.Finished()) {
		return d.listener
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.generation++
	l := &Listener{
		generation: d.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      ListenerRunning,
	}
	d.listener = l

	metrics.ListenerStarts.WithLabelValues(d.cfg.Name).Inc()
	metrics.ActiveListeners.Inc()
	go d.run(ctx, l)
	return l
}

// CancelListening stops the running listener, if any, and waits for it to
// release its connection.
func (d *Device) CancelListening() {
	l := d.Listener()
	if l == nil {
		return
	}
	l.Cancel()
	<-l.Done()
}

func (d *Device) run(ctx context.Context, l *Listener) {
	defer close(l.done)
	defer metrics.ActiveListeners.Dec()
	defer l.cancel()

	logger := d.log.With().
		Str("task", d.TaskName()).
		Uint64("generation", l.generation).
		Logger()

	state, err := d.listen(ctx, logger)
	l.finish(state, err)
	metrics.ListenerOutcomes.WithLabelValues(d.cfg.Name, state.String()).Inc()
}

// listen consumes the stream and turns the way it ended into a state. It
// never lets a failure escape, panics included.
func (d *Device) listen(ctx context.Context, logger zerolog.Logger) (state ListenerState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
			state = ListenerFailed
			logger.Error().Err(err).Msg("NIPCA listener unknown error")
		}
	}()

	err = d.consume(ctx, logger)

	switch {
	case err == nil:
		logger.Info().Msg("NIPCA listener stream ended")
		return ListenerSucceeded, nil
	case ctx.Err() != nil:
		logger.Info().Msg("NIPCA listener task canceled")
		return ListenerCancelled, nil
	case isConnectionError(err):
		logger.Warn().Err(err).Msg("NIPCA listener connection error")
		return ListenerFailed, err
	case errors.Is(err, ErrTimeout):
		logger.Warn().Err(err).Msg("NIPCA listener task timeout")
		return ListenerFailed, err
	default:
		logger.Error().Err(err).Msg("NIPCA listener unknown error")
		return ListenerFailed, err
	}
}

func (d *Device) consume(ctx context.Context, logger zerolog.Logger) error {
	base, err := d.ResolvePresentationURL(ctx)
	if err != nil {
		return err
	}

	stream, err := d.transport.OpenStream(ctx, base+notifyStreamPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		line, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		logger.Debug().Str("line", line).Msg("NIPCA received")
		if key, value, ok := ParseLine(line); ok {
			d.setEvent(key, value)
		}
	}
}

func isConnectionError(err error) bool {
	var unreachable *UnreachableError
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrStreamClosed) ||
		errors.As(err, &unreachable)
}
