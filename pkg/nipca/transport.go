package nipca

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/icholy/digest"
)

// maxLineLength bounds a single event or attribute line.
const maxLineLength = 64 * 1024

// AuthMode selects how requests are authenticated against the camera.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthDigest AuthMode = "digest"
)

// ParseAuthMode accepts the configuration spelling of an auth mode.
// An empty string selects basic auth.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AuthBasic:
		return AuthBasic, nil
	case AuthDigest:
		return AuthDigest, nil
	case AuthNone:
		return AuthNone, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", s)
	}
}

// Transport issues requests against a camera.
type Transport interface {
	// Fetch returns the body of a GET request.
	Fetch(ctx context.Context, url string) (string, error)

	// OpenStream starts a long-lived GET and yields its body line by line.
	OpenStream(ctx context.Context, url string) (LineStream, error)
}

// LineStream is a lazy, unbounded, non-restartable sequence of lines.
type LineStream interface {
	// Next blocks until a line arrives. It returns io.EOF when the camera ends
	// the response, ErrTimeout when no line arrives in time and ctx.Err() when
	// ctx is cancelled.
	Next(ctx context.Context) (string, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPTransport builds a transport applying cfg's credentials, TLS
// verification and timeout to every request.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	timeout := cfg.timeout()

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifySSL} //nolint:gosec // cameras ship self-signed certificates
	base.ResponseHeaderTimeout = timeout
	base.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext

	var rt http.RoundTripper = base
	switch cfg.authMode() {
	case AuthBasic:
		rt = &basicAuthTransport{username: cfg.Username, password: cfg.Password, next: base}
	case AuthDigest:
		rt = &digest.Transport{Username: cfg.Username, Password: cfg.Password, Transport: base}
	}

	return &HTTPTransport{
		client:  &http.Client{Transport: rt},
		timeout: timeout,
	}
}

func (t *HTTPTransport) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", newUnreachableError(url, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyNetError(err)
	}
	return string(body), nil
}

func (t *HTTPTransport) OpenStream(ctx context.Context, url string) (LineStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	resp, err := t.get(ctx, url)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, newUnreachableError(url, resp)
	}

	return newLineStream(resp.Body, cancel, t.timeout), nil
}

func (t *HTTPTransport) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifyNetError(err)
	}
	return resp, nil
}

type basicAuthTransport struct {
	username string
	password string
	next     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return t.next.RoundTrip(req)
}

// lineStream feeds lines from a reader goroutine so that Next can wait on the
// caller's context and the read timeout at the same time.
type lineStream struct {
	body    io.ReadCloser
	cancel  context.CancelFunc
	timeout time.Duration

	lines  chan string
	closed chan struct{}
	done   chan struct{}
	err    error // written by read before done is closed

	closeOnce sync.Once
	closeErr  error
}

func newLineStream(body io.ReadCloser, cancel context.CancelFunc, timeout time.Duration) *lineStream {
	s := &lineStream{
		body:    body,
		cancel:  cancel,
		timeout: timeout,
		lines:   make(chan string),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *lineStream) read() {
	defer close(s.done)

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.closed:
			return
		}
	}
	s.err = scanner.Err()
}

func (s *lineStream) Next(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case line := <-s.lines:
		return line, nil
	case <-s.done:
		if s.err == nil {
			return "", io.EOF
		}
		return "", classifyStreamError(s.err)
	case <-s.closed:
		return "", fmt.Errorf("%w: stream closed locally", ErrStreamClosed)
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("%w: no data for %s", ErrTimeout, s.timeout)
	}
}

func (s *lineStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

func newUnreachableError(url string, resp *http.Response) *UnreachableError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &UnreachableError{URL: url, StatusCode: resp.StatusCode, Reason: reason}
}

// classifyNetError maps transport errors onto the package sentinels while
// keeping the original error in the chain.
func classifyNetError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ECONNRESET), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

// classifyStreamError treats any network read failure after the stream was
// established as the remote closing it. Oversized lines stay unexpected.
func classifyStreamError(err error) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return err
	}

	classified := classifyNetError(err)
	if errors.Is(classified, ErrTimeout) || errors.Is(classified, ErrStreamClosed) || errors.Is(classified, context.Canceled) {
		return classified
	}
	return fmt.Errorf("%w: %w", ErrStreamClosed, err)
}
