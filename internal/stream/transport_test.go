package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lwerrors "github.com/leadwise/leadwise/internal/errors"
)

func TestTransport_OpenStreamsEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Message)
		assert.Equal(t, "contacts", req.PageContext)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: {\"type\":\"chunk\",\"text\":\"Hi\"}\n\ndata: {\"type\":\"done\",\"messageId\":\"m1\"}\n\n")
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, "secret", 0)
	body, err := tr.Open(context.Background(), Request{Message: "Hello", PageContext: "contacts"})
	require.NoError(t, err)
	defer body.Close()

	d := NewDecoder(body)
	evt, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "Hi", evt.Text)

	evt, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeDone, evt.Type)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTransport_NonSuccessUsesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"token expired"}`)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, "secret", 0)
	_, err := tr.Open(context.Background(), Request{Message: "Hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, lwerrors.ErrTransport)
	assert.Contains(t, err.Error(), "token expired")
}

func TestTransport_NonSuccessGenericFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>upstream died</html>")
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, "", 0)
	_, err := tr.Open(context.Background(), Request{Message: "Hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, lwerrors.ErrTransport)
	assert.Contains(t, err.Error(), "Stream request failed (502)")
}

func TestTransport_CancelledContextIsNotTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewTransport(srv.URL, "", 0)
	_, err := tr.Open(ctx, Request{Message: "Hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, lwerrors.ErrCancelled)
	assert.False(t, errors.Is(err, lwerrors.ErrTransport))
}

func TestTransport_IdleTimeoutAbortsStalledStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: {\"type\":\"chunk\",\"text\":\"Hi\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Stall until the client gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, "", 80*time.Millisecond)
	body, err := tr.Open(context.Background(), Request{Message: "Hello"})
	require.NoError(t, err)
	defer body.Close()

	d := NewDecoder(body)
	evt, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "Hi", evt.Text)

	_, err = d.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, lwerrors.ErrTransport)
}
