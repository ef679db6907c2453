package errors

import (
	"context"
	"errors"
)

// Sentinel errors for the streaming chat engine
var (
	// ErrTransport - network failure or non-2xx response; fatal to the current turn
	ErrTransport = errors.New("transport error")

	// ErrApplication - explicit error event emitted by the server mid-stream
	ErrApplication = errors.New("application error")

	// ErrCancelled - stream aborted by an explicit cancel or a replacing send;
	// expected, never surfaced through the error callback
	ErrCancelled = errors.New("stream cancelled")

	// ErrFrameParse - a single malformed event block; absorbed at the decoder,
	// never propagated past it
	ErrFrameParse = errors.New("frame parse error")

	// ErrNotFound - resource (thread, message) not found upstream
	ErrNotFound = errors.New("not found")

	// ErrTransient - retryable upstream condition (rate limit, timeout)
	ErrTransient = errors.New("transient error")
)

// IsCancellation reports whether err is an expected abort rather than a
// genuine failure. Context cancellation from a replaced or cancelled send
// counts; deadline expiry does not.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsTerminal reports whether err ends the current turn.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrFrameParse)
}
