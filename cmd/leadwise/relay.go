package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwise/leadwise/internal/config"
	"github.com/leadwise/leadwise/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a local assistant relay server",
	Long:  `Serve the assistant wire protocol locally, backed by a configured model provider. Point the chat client at it with --chat.base_url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := buildProvider()
		if err != nil {
			return err
		}

		handler := NewSignalHandler(cmd.Context())
		handler.Start()
		defer handler.Stop()

		server := relay.NewServer(provider)
		return server.ListenAndServe(handler.Context(), cfg.Relay.Addr)
	},
}

func buildProvider() (relay.Provider, error) {
	switch cfg.Relay.Provider {
	case "anthropic":
		return relay.NewAnthropicProvider(cfg.Relay.APIKey, cfg.Relay.Model), nil
	case "openai":
		return relay.NewOpenAIProvider(cfg.Relay.APIKey, "", cfg.Relay.Model), nil
	case "scripted":
		if cfg.Relay.ScriptPath == "" {
			return nil, fmt.Errorf("relay.script_path is required for the scripted provider")
		}
		return relay.LoadScript(cfg.Relay.ScriptPath)
	default:
		return nil, fmt.Errorf("unknown relay provider %q (anthropic, openai, scripted)", cfg.Relay.Provider)
	}
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().String("relay.addr", config.DefaultRelayAddr, "listen address")
	relayCmd.Flags().String("relay.provider", config.DefaultRelayProvider, "model provider (anthropic, openai, scripted)")
	relayCmd.Flags().String("relay.model", config.DefaultRelayModel, "model name")
	relayCmd.Flags().String("relay.script_path", "", "event script for the scripted provider")
}
