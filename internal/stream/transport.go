package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	lwerrors "github.com/leadwise/leadwise/internal/errors"
)

// Transport opens the long-lived assistant stream. It owns the HTTP
// mechanics only; decoding and state belong to the caller.
type Transport struct {
	endpoint    string
	token       string
	client      *http.Client
	idleTimeout time.Duration
}

// Request is the chat request body.
type Request struct {
	Message     string `json:"message"`
	PageContext string `json:"page_context,omitempty"`
}

func NewTransport(endpoint, token string, idleTimeout time.Duration) *Transport {
	return &Transport{
		endpoint:    endpoint,
		token:       token,
		client:      newStreamingHTTPClient(),
		idleTimeout: idleTimeout,
	}
}

// Open issues the streaming POST and returns the response body. A non-2xx
// status is a terminal transport error; the server's JSON error message is
// used when present. The returned body aborts the request when no data
// arrives within the idle timeout, and on Close.
func (t *Transport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(b))
	if err != nil {
		cancel()
		return nil, err
	}

	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		cancel()
		if lwerrors.IsCancellation(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("stream request aborted: %w", lwerrors.ErrCancelled)
		}
		return nil, fmt.Errorf("stream request failed: %v: %w", err, lwerrors.ErrTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%s: %w", errorMessage(resp.StatusCode, raw), lwerrors.ErrTransport)
	}

	return newIdleWatchdog(resp.Body, cancel, t.idleTimeout), nil
}

// errorMessage extracts {"error": "..."} from a failed response, falling
// back to a generic message carrying the status code.
func errorMessage(status int, raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("Stream request failed (%d)", status)
}

// idleWatchdog aborts the in-flight request when Read makes no progress
// within the configured window. A zero timeout disables the watchdog.
type idleWatchdog struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	timer  *time.Timer

	mu       sync.Mutex
	timedOut bool
	closed   bool
}

func newIdleWatchdog(body io.ReadCloser, cancel context.CancelFunc, timeout time.Duration) *idleWatchdog {
	w := &idleWatchdog{body: body, cancel: cancel}
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			w.mu.Lock()
			w.timedOut = true
			w.mu.Unlock()
			cancel()
		})
		// Rearm on every read
		w.body = &rearmReader{inner: body, timer: w.timer, timeout: timeout}
	}
	return w
}

func (w *idleWatchdog) Read(p []byte) (int, error) {
	n, err := w.body.Read(p)
	if err != nil {
		w.mu.Lock()
		timedOut := w.timedOut
		w.mu.Unlock()
		if timedOut {
			return n, fmt.Errorf("stream idle timeout: %w", lwerrors.ErrTransport)
		}
	}
	return n, err
}

func (w *idleWatchdog) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.cancel()
	return w.body.Close()
}

type rearmReader struct {
	inner   io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *rearmReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *rearmReader) Close() error {
	if c, ok := r.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func newStreamingHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	// Do not use http.Client.Timeout for streaming because it caps total
	// stream duration.
	return &http.Client{Transport: transport}
}
