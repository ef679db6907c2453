package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwise/leadwise/internal/api"
	"github.com/leadwise/leadwise/internal/config"
	"github.com/leadwise/leadwise/internal/prefs"
	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive chat session",
	Long:  `Start a streaming chat with the assistant. Type /help inside the session for commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewSignalHandler(cmd.Context())
		handler.Start()
		defer handler.Stop()

		repl, err := buildREPL(handler.Context())
		if err != nil {
			return err
		}
		repl.pageContext, _ = cmd.Flags().GetString("chat.page_context")
		return repl.Run(handler.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("chat.page_context", "", "page context attached to every message")
}

func buildREPL(ctx context.Context) (*REPL, error) {
	idleTimeout, err := config.DurationOrDefault(cfg.Chat.IdleTimeout, config.DefaultChatIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid chat.idle_timeout: %w", err)
	}
	requestTimeout, err := config.DurationOrDefault(cfg.Chat.RequestTimeout, config.DefaultChatRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid chat.request_timeout: %w", err)
	}
	displayFloor, err := config.DurationOrDefault(cfg.Chat.DisplayFloor, config.DefaultChatDisplayFloor)
	if err != nil {
		return nil, fmt.Errorf("invalid chat.display_floor: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, fmt.Errorf("invalid store.lock_retry: %w", err)
	}

	transport := stream.NewTransport(cfg.Chat.BaseURL+cfg.Chat.StreamPath, cfg.Chat.Token, idleTimeout)
	backend := api.NewClient(api.Options{
		BaseURL:       cfg.Chat.BaseURL,
		MessagesPath:  cfg.Chat.MessagesPath,
		NewThreadPath: cfg.Chat.NewThreadPath,
		Token:         cfg.Chat.Token,
		Timeout:       requestTimeout,
	})

	store, err := prefs.NewStore(cfg.Store.Path, prefs.Options{
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.Store.LockMaxRetry,
	})
	if err != nil {
		return nil, err
	}

	repl := NewREPL(store, newRenderer())
	repl.controller = session.NewController(session.Options{
		Transport:         transport,
		Backend:           backend,
		DisplayFloor:      displayFloor,
		Clock:             toolcall.SystemClock(),
		OnChange:          repl.onChange,
		OnError:           repl.onError,
		OnDocumentChanged: repl.onDocumentChanged,
	})

	if err := repl.controller.Load(ctx); err != nil {
		return nil, err
	}
	return repl, nil
}
