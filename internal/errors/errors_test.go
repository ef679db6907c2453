package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(ErrCancelled) {
		t.Error("ErrCancelled should be a cancellation")
	}
	if !IsCancellation(fmt.Errorf("read aborted: %w", context.Canceled)) {
		t.Error("wrapped context.Canceled should be a cancellation")
	}
	if IsCancellation(context.DeadlineExceeded) {
		t.Error("deadline expiry is not a cancellation")
	}
	if IsCancellation(ErrTransport) {
		t.Error("transport errors are not cancellations")
	}
	if IsCancellation(nil) {
		t.Error("nil is not a cancellation")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(fmt.Errorf("bad block: %w", ErrFrameParse)) {
		t.Error("parse errors must not end the turn")
	}
	if !IsTerminal(ErrTransport) {
		t.Error("transport errors end the turn")
	}
	if !IsTerminal(ErrApplication) {
		t.Error("application errors end the turn")
	}
	if IsTerminal(nil) {
		t.Error("nil is not terminal")
	}
}
