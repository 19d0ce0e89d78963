package nipca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFinished(t *testing.T, l *Listener) ListenerState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := l.Wait(ctx)
	require.NoError(t, err, "listener did not finish")
	return state
}

func TestListenerCancelReleasesStream(t *testing.T) {
	stream := &fakeStream{lines: []string{"md1=on"}, block: true}
	d := newFakeDevice(t, newFakeTransport(stream))

	l := d.StartListening(context.Background())
	require.Eventually(t, func() bool { return d.Events()["md1"] == "on" }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, l.Finished())

	d.CancelListening()

	assert.True(t, l.Finished())
	assert.Equal(t, ListenerCancelled, l.State())
	assert.NoError(t, l.Err())
	assert.Equal(t, int32(1), stream.closed.Load())
}

func TestListenerOutlivesStartContext(t *testing.T) {
	stream := &fakeStream{block: true}
	d := newFakeDevice(t, newFakeTransport(stream))

	ctx, cancel := context.WithCancel(context.Background())
	l := d.StartListening(ctx)
	cancel()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, l.Finished())
}

func TestListenerOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		stream  *fakeStream
		openErr error
		want    ListenerState
		wantErr error
	}{
		{
			name:   "clean end of stream",
			stream: &fakeStream{lines: []string{"md1=off"}},
			want:   ListenerSucceeded,
		},
		{
			name:    "stream closed by remote",
			stream:  &fakeStream{err: fmt.Errorf("%w: connection reset", ErrStreamClosed)},
			want:    ListenerFailed,
			wantErr: ErrStreamClosed,
		},
		{
			name:    "connection refused",
			openErr: fmt.Errorf("%w: dial tcp: connection refused", ErrConnection),
			want:    ListenerFailed,
			wantErr: ErrConnection,
		},
		{
			name:    "read timeout",
			stream:  &fakeStream{lines: []string{"md1=off"}, err: fmt.Errorf("%w: no data for 10s", ErrTimeout)},
			want:    ListenerFailed,
			wantErr: ErrTimeout,
		},
		{
			name:    "unexpected error",
			stream:  &fakeStream{err: errors.New("boom")},
			want:    ListenerFailed,
			wantErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFakeTransport(tt.stream)
			tr.openErr = tt.openErr
			d := newFakeDevice(t, tr)

			l := d.StartListening(context.Background())
			assert.Equal(t, tt.want, waitFinished(t, l))

			if tt.wantErr == nil {
				assert.NoError(t, l.Err())
			} else if errors.Is(tt.wantErr, ErrStreamClosed) || errors.Is(tt.wantErr, ErrConnection) || errors.Is(tt.wantErr, ErrTimeout) {
				assert.ErrorIs(t, l.Err(), tt.wantErr)
			} else {
				assert.EqualError(t, l.Err(), tt.wantErr.Error())
			}

			if tt.stream != nil && tt.openErr == nil {
				assert.Equal(t, int32(1), tt.stream.closed.Load(), "stream closed on every exit path")
			}
		})
	}
}

func TestListenerUnreachableStream(t *testing.T) {
	tr := newFakeTransport(nil)
	tr.openErr = &UnreachableError{URL: fakeBase + notifyStreamPath, StatusCode: http.StatusUnauthorized, Reason: "Unauthorized"}
	d := newFakeDevice(t, tr)

	l := d.StartListening(context.Background())
	assert.Equal(t, ListenerFailed, waitFinished(t, l))

	var unreachable *UnreachableError
	assert.ErrorAs(t, l.Err(), &unreachable)
}

func TestListenerRecoversPanic(t *testing.T) {
	tr := newFakeTransport(nil)
	tr.openPanic = true
	d := newFakeDevice(t, tr)

	l := d.StartListening(context.Background())
	assert.Equal(t, ListenerFailed, waitFinished(t, l))
	assert.ErrorContains(t, l.Err(), "stream exploded")
}

func TestListenerAppliesEvents(t *testing.T) {
	stream := &fakeStream{lines: []string{"  md1=off ", "noise", "pir=off", "md1=on", ""}}

	var seen []string
	d := newFakeDevice(t, newFakeTransport(stream), WithEventHandler(func(key, value string) {
		seen = append(seen, key+"="+value)
	}))

	l := d.StartListening(context.Background())
	require.Equal(t, ListenerSucceeded, waitFinished(t, l))

	assert.Equal(t, map[string]string{"md1": "on", "pir": "off"}, d.Events())
	assert.Equal(t, []string{"md1=off", "pir=off", "md1=on"}, seen)
}

func TestStartListeningKeepsRunningListener(t *testing.T) {
	stream := &fakeStream{block: true}
	tr := newFakeTransport(stream)
	d := newFakeDevice(t, tr)

	first := d.StartListening(context.Background())
	second := d.StartListening(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), first.Generation())
	require.Eventually(t, func() bool { return tr.opens.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStartListeningReplacesFinishedListener(t *testing.T) {
	d := newFakeDevice(t, newFakeTransport(&fakeStream{}))

	first := d.StartListening(context.Background())
	waitFinished(t, first)

	second := d.StartListening(context.Background())
	assert.NotSame(t, first, second)
	assert.Equal(t, uint64(2), second.Generation())
	assert.Same(t, second, d.Listener())
	assert.Equal(t, ListenerSucceeded, first.State(), "old handle keeps its outcome")
}

func TestShutdownCancelsListeners(t *testing.T) {
	n := NewShutdownNotifier()

	streams := []*fakeStream{{block: true}, {block: true}}
	listeners := make([]*Listener, 0, len(streams))
	for _, s := range streams {
		d := newFakeDevice(t, newFakeTransport(s), WithShutdownNotifier(n))
		listeners = append(listeners, d.StartListening(context.Background()))
	}

	n.Notify()

	for i, l := range listeners {
		assert.True(t, l.Finished())
		assert.Equal(t, ListenerCancelled, l.State())
		assert.Equal(t, int32(1), streams[i].closed.Load())
	}
}

func TestClosedDeviceDoesNotListen(t *testing.T) {
	tr := newFakeTransport(&fakeStream{block: true})
	d := newFakeDevice(t, tr)
	d.Close()

	assert.Nil(t, d.StartListening(context.Background()))
	assert.Zero(t, tr.opens.Load())
}

func TestListenerStateString(t *testing.T) {
	assert.Equal(t, "running", ListenerRunning.String())
	assert.Equal(t, "cancelled", ListenerCancelled.String())
	assert.Equal(t, "ListenerState(9)", ListenerState(9).String())
}
