package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/assistant/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[
			{"id":"m1","role":"user","content":"Hello"},
			{"id":"m2","role":"assistant","content":"Hi there","extra":{"toolCalls":[{"id":"tc-1","name":"search_contacts","status":"success","summary":"3 contacts"}]}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, Token: "secret"})
	messages, err := client.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "Hello", messages[0].Content)

	require.NotNil(t, messages[1].Extra)
	require.Len(t, messages[1].Extra.ToolCalls, 1)
	assert.Equal(t, "search_contacts", messages[1].Extra.ToolCalls[0].Name)
	assert.Equal(t, "3 contacts", messages[1].Extra.ToolCalls[0].Summary)
}

func TestListMessagesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	_, err := client.ListMessages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestNewThread(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/assistant/new-thread", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, client.NewThread(context.Background()))
	assert.True(t, called)
}

func TestNewThreadFailureFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	err := client.NewThread(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
