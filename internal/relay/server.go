package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
)

// Server exposes the assistant HTTP surface backed by a Provider. It
// keeps the conversation in memory; a new-thread request clears it.
type Server struct {
	provider Provider

	mu       sync.Mutex
	messages []session.Message
}

func NewServer(provider Provider) *Server {
	return &Server{provider: provider}
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assistant/stream", s.handleStream)
	mux.HandleFunc("GET /api/assistant/messages", s.handleMessages)
	mux.HandleFunc("POST /api/assistant/new-thread", s.handleNewThread)
	return mux
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]session.Message, len(s.messages))
	copy(out, s.messages)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"messages": out})
}

func (s *Server) handleNewThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	slog.Info("Thread reset")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message     string `json:"message"`
		PageContext string `json:"page_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(evt stream.Event) error {
		data, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	userMsg := s.appendMessage(session.RoleUser, req.Message, req.PageContext)
	history := s.snapshot()

	text, err := s.provider.Stream(r.Context(), Request{
		Message:     req.Message,
		PageContext: req.PageContext,
		History:     history,
	}, emit)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nothing left to tell it.
			s.removeMessage(userMsg.ID)
			return
		}
		slog.Error("Provider stream failed", "provider", s.provider.Name(), "error", err)
		emit(stream.Event{Type: stream.TypeError, Message: err.Error()})
		s.removeMessage(userMsg.ID)
		return
	}

	assistantMsg := s.appendMessage(session.RoleAssistant, text, "")
	emit(stream.Event{Type: stream.TypeDone, MessageID: assistantMsg.ID})
}

func (s *Server) appendMessage(role session.Role, content, pageContext string) session.Message {
	msg := session.Message{
		ID:          ulid.Make().String(),
		Role:        role,
		Content:     content,
		CreatedAt:   time.Now(),
		PageContext: pageContext,
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

func (s *Server) removeMessage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

func (s *Server) snapshot() []session.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]session.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ListenAndServe runs the relay until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Relay listening", "addr", addr, "provider", s.provider.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
