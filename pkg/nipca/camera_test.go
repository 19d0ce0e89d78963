package nipca

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

const commonInfoBody = `
model=DCS-2132LB1
brand=D-Link
name=Workshop
macaddr=B0:C5:54:16:A5:21
inputs=1
outputs=1
pir=yes
ir=yes
mic=yes
led=yes
`

const streamInfoBody = `
videos=MJPEG,H.264
vprofileurl1=/video/mjpg.cgi?profileid=1
vprofileurl2=/video/ACVS-H264.cgi?profileid=2
`

const motionInfoBody = `
enable=yes
sensitivity=75
pir=yes
pir_sensitivity=50
`

const notifyBody = `
md1=off
pir=off
input1=off
md1=on
cameraname=Workshop
`

// fakeCamera serves a NIPCA camera over httptest. Every path answers 404
// unless a body was registered for it.
type fakeCamera struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newFakeCamera(t *testing.T) *fakeCamera {
	t.Helper()

	c := &fakeCamera{bodies: make(map[string]string), hits: make(map[string]int)}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Close)

	c.set("/description.xml", fmt.Sprintf(
		"<root><device><deviceType>%s</deviceType><presentationURL>%s/</presentationURL></device></root>",
		DeviceTypeBasic, c.URL))
	return c
}

func (c *fakeCamera) set(path, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies[path] = body
}

func (c *fakeCamera) hitCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *fakeCamera) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	body, ok := c.bodies[r.URL.Path]
	c.hits[r.URL.Path]++
	c.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (c *fakeCamera) config() Config {
	return Config{Name: "workshop", URL: c.URL + "/description.xml"}
}

// fakeTransport answers Fetch from a map and OpenStream with a prepared
// stream.
type fakeTransport struct {
	bodies    map[string]string
	stream    *fakeStream
	openErr   error
	openPanic bool
	opens     atomic.Int32
}

func (f *fakeTransport) Fetch(_ context.Context, url string) (string, error) {
	body, ok := f.bodies[url]
	if !ok {
		return "", &UnreachableError{URL: url, StatusCode: http.StatusNotFound, Reason: "Not Found"}
	}
	return body, nil
}

func (f *fakeTransport) OpenStream(_ context.Context, _ string) (LineStream, error) {
	f.opens.Add(1)
	if f.openPanic {
		panic("stream exploded")
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

// fakeStream yields lines, then returns err (io.EOF when unset) or, when
// block is set, waits for cancellation.
type fakeStream struct {
	mu     sync.Mutex
	lines  []string
	err    error
	block  bool
	closed atomic.Int32
}

func (s *fakeStream) Next(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.lines) > 0 {
		line := s.lines[0]
		s.lines = s.lines[1:]
		s.mu.Unlock()
		return line, nil
	}
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err == nil {
		return "", io.EOF
	}
	return "", s.err
}

func (s *fakeStream) Close() error {
	s.closed.Add(1)
	return nil
}

const fakeBase = "http://camera.local"

func newFakeTransport(stream *fakeStream) *fakeTransport {
	return &fakeTransport{
		bodies: map[string]string{
			fakeBase + "/description.xml": "<root><device><presentationURL>" + fakeBase + "</presentationURL></device></root>",
		},
		stream: stream,
	}
}

func newFakeDevice(t *testing.T, tr *fakeTransport, opts ...Option) *Device {
	t.Helper()
	opts = append([]Option{WithTransport(tr)}, opts...)
	d := NewDevice(Config{Name: "fake", URL: fakeBase + "/description.xml"}, opts...)
	t.Cleanup(d.Close)
	return d
}
