package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwise/leadwise/internal/api"
	"github.com/leadwise/leadwise/internal/config"
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Manage conversation threads",
}

var threadNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh conversation thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.NewThread(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Started a new thread.")
		return nil
	},
}

func newAPIClient() (*api.Client, error) {
	requestTimeout, err := config.DurationOrDefault(cfg.Chat.RequestTimeout, config.DefaultChatRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid chat.request_timeout: %w", err)
	}
	return api.NewClient(api.Options{
		BaseURL:       cfg.Chat.BaseURL,
		MessagesPath:  cfg.Chat.MessagesPath,
		NewThreadPath: cfg.Chat.NewThreadPath,
		Token:         cfg.Chat.Token,
		Timeout:       requestTimeout,
	}), nil
}

func init() {
	threadCmd.AddCommand(threadNewCmd)
	rootCmd.AddCommand(threadCmd)
}
