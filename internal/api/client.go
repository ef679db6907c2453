// Package api talks to the leadwise server's REST surface: message
// history and thread management. The streaming endpoint lives in
// internal/stream instead.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lwerrors "github.com/leadwise/leadwise/internal/errors"
	"github.com/leadwise/leadwise/internal/session"
)

// Client implements session.Backend against the HTTP API.
type Client struct {
	baseURL       string
	messagesPath  string
	newThreadPath string
	token         string
	client        *http.Client
}

// Options configures a Client. Zero-value paths and timeout fall back to
// the server's defaults.
type Options struct {
	BaseURL       string
	MessagesPath  string
	NewThreadPath string
	Token         string
	Timeout       time.Duration
}

const (
	defaultMessagesPath  = "/api/assistant/messages"
	defaultNewThreadPath = "/api/assistant/new-thread"
	defaultTimeout       = 30 * time.Second
)

func NewClient(opts Options) *Client {
	if opts.MessagesPath == "" {
		opts.MessagesPath = defaultMessagesPath
	}
	if opts.NewThreadPath == "" {
		opts.NewThreadPath = defaultNewThreadPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		messagesPath:  opts.MessagesPath,
		newThreadPath: opts.NewThreadPath,
		token:         opts.Token,
		client:        &http.Client{Timeout: opts.Timeout},
	}
}

// ListMessages fetches the persisted conversation, oldest first.
func (c *Client) ListMessages(ctx context.Context) ([]session.Message, error) {
	var payload struct {
		Messages []session.Message `json:"messages"`
	}
	if err := c.getJSON(ctx, c.messagesPath, &payload); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return payload.Messages, nil
}

// NewThread asks the server to retire the current conversation and start
// a fresh one.
func (c *Client) NewThread(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.newThreadPath, nil)
	if err != nil {
		return fmt.Errorf("new thread: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("new thread: %w: %v", lwerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("new thread: %w", c.statusError(resp))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", lwerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", lwerrors.ErrTransport, err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError extracts the server's error message when it sent one, and
// falls back to the HTTP status otherwise.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%w: %s", lwerrors.ErrTransport, payload.Error)
	}
	return fmt.Errorf("%w: request failed (%s)", lwerrors.ErrTransport, resp.Status)
}
