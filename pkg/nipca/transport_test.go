package nipca

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/icholy/digest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthMode(t *testing.T) {
	for in, want := range map[string]AuthMode{"": AuthBasic, "basic": AuthBasic, "Digest": AuthDigest, "none": AuthNone} {
		got, err := ParseAuthMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAuthMode("ntlm")
	assert.Error(t, err)
}

func TestConfigAuthMode(t *testing.T) {
	assert.Equal(t, AuthNone, Config{AuthMode: AuthDigest, Username: "admin"}.authMode())
	assert.Equal(t, AuthBasic, Config{Username: "admin", Password: "secret"}.authMode())
	assert.Equal(t, AuthDigest, Config{AuthMode: AuthDigest, Username: "admin", Password: "secret"}.authMode())
}

func TestFetchBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "name=Workshop\n")
	}))
	defer srv.Close()

	tr := NewHTTPTransport(Config{Username: "admin", Password: "secret"})
	body, err := tr.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "name=Workshop\n", body)

	anonymous := NewHTTPTransport(Config{AuthMode: AuthBasic})
	_, err = anonymous.Fetch(context.Background(), srv.URL)
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusUnauthorized, unreachable.StatusCode)
	assert.Equal(t, "Unauthorized", unreachable.Reason)
}

// digestServer challenges every request for admin/secret and serves an
// attribute body, or a held open notify stream on notifyStreamPath.
func digestServer(t *testing.T) *httptest.Server {
	t.Helper()

	chal := &digest.Challenge{
		Realm:     "DCS-2132LB1",
		Nonce:     "dcd98b7102dd2f0e8b11d0f600bfb0c093",
		Opaque:    "5ccc069c403ebaf9f0171e9517f40e41",
		Algorithm: "MD5",
		QOP:       []string{"auth"},
	}
	valid := func(r *http.Request) bool {
		creds, err := digest.ParseCredentials(r.Header.Get("Authorization"))
		if err != nil || creds.Username != "admin" {
			return false
		}
		want, err := digest.Digest(chal, digest.Options{
			Method:   r.Method,
			URI:      creds.URI,
			Username: "admin",
			Password: "secret",
			Cnonce:   creds.Cnonce,
			Count:    creds.Nc,
		})
		return err == nil && want.Response == creds.Response
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !valid(r) {
			w.Header().Set("WWW-Authenticate", chal.String())
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != notifyStreamPath {
			_, _ = io.WriteString(w, "name=Workshop\n")
			return
		}
		_, _ = io.WriteString(w, "md1=on\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDigestAuth(t *testing.T) {
	srv := digestServer(t)
	ctx := context.Background()

	tr := NewHTTPTransport(Config{Username: "admin", Password: "secret", AuthMode: AuthDigest})
	body, err := tr.Fetch(ctx, srv.URL+"/common/info.cgi")
	require.NoError(t, err)
	assert.Equal(t, "name=Workshop\n", body)

	stream, err := tr.OpenStream(ctx, srv.URL+notifyStreamPath)
	require.NoError(t, err)
	line, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "md1=on", line)
	require.NoError(t, stream.Close())

	wrong := NewHTTPTransport(Config{Username: "admin", Password: "guess", AuthMode: AuthDigest})
	_, err = wrong.Fetch(ctx, srv.URL+"/common/info.cgi")
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusUnauthorized, unreachable.StatusCode)

	_, err = wrong.OpenStream(ctx, srv.URL+notifyStreamPath)
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusUnauthorized, unreachable.StatusCode)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr := NewHTTPTransport(Config{Timeout: 50 * time.Millisecond})
	_, err := tr.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(Config{}).Fetch(context.Background(), url)
	assert.ErrorIs(t, err, ErrConnection)
}

func streamServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		flusher.Flush()
		for _, line := range lines {
			_, _ = io.WriteString(w, line+"\n")
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenStreamLines(t *testing.T) {
	srv := streamServer(t, "md1=on", "pir=off")

	stream, err := NewHTTPTransport(Config{Timeout: 100 * time.Millisecond}).OpenStream(context.Background(), srv.URL)
	require.NoError(t, err)
	defer stream.Close()

	line, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "md1=on", line)

	line, err = stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pir=off", line)

	_, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOpenStreamCancellation(t *testing.T) {
	srv := streamServer(t)

	stream, err := NewHTTPTransport(Config{}).OpenStream(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), DefaultTimeout)

	require.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())
}

func TestOpenStreamEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "md1=off\n")
	}))
	defer srv.Close()

	stream, err := NewHTTPTransport(Config{}).OpenStream(context.Background(), srv.URL)
	require.NoError(t, err)
	defer stream.Close()

	line, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "md1=off", line)

	_, err = stream.Next(context.Background())
	assert.True(t, errors.Is(err, io.EOF))
}

// cutStreamServer answers the notify stream with one chunk and then drops the
// connection without the terminating chunk.
func cutStreamServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/description.xml" {
			fmt.Fprintf(w, "<root><device><deviceType>%s</deviceType><presentationURL>%s/</presentationURL></device></root>",
				DeviceTypeBasic, srv.URL)
			return
		}

		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nTransfer-Encoding: chunked\r\n\r\n")
		_, _ = buf.WriteString("7\r\nmd1=on\n\r\n")
		_ = buf.Flush()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenStreamCutByRemote(t *testing.T) {
	srv := cutStreamServer(t)
	ctx := context.Background()

	stream, err := NewHTTPTransport(Config{}).OpenStream(ctx, srv.URL+notifyStreamPath)
	require.NoError(t, err)
	defer stream.Close()

	line, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "md1=on", line)

	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestHTTPListenerStreamCutByRemote(t *testing.T) {
	srv := cutStreamServer(t)

	var logs bytes.Buffer
	logger := zerolog.New(zerolog.SyncWriter(&logs))
	d := NewDevice(Config{Name: "workshop", URL: srv.URL + "/description.xml"}, WithLogger(logger))
	defer d.Close()

	l := d.StartListening(context.Background())
	assert.Equal(t, ListenerFailed, waitFinished(t, l))
	assert.ErrorIs(t, l.Err(), ErrStreamClosed)
	assert.Equal(t, "on", d.Events()["md1"])

	out := logs.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "NIPCA listener connection error")
}

func TestOpenStreamNonOK(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPTransport(Config{}).OpenStream(context.Background(), srv.URL)
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusNotFound, unreachable.StatusCode)
}

func TestHTTPListenerEndToEnd(t *testing.T) {
	cam := newFakeCamera(t)
	cam.set(notifyStreamPath, notifyBody)
	d := NewDevice(cam.config())
	defer d.Close()

	l := d.StartListening(context.Background())
	assert.Equal(t, ListenerSucceeded, waitFinished(t, l))
	assert.Equal(t, map[string]string{
		"md1":        "on",
		"pir":        "off",
		"input1":     "off",
		"cameraname": "Workshop",
	}, d.Events())
}
