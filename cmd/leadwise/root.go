package main

import (
	"fmt"
	"os"

	"github.com/leadwise/leadwise/internal/config"
	"github.com/leadwise/leadwise/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leadwise",
	Short: "LeadWise assistant CLI",
	Long:  `Command-line client for the LeadWise assistant: streaming chat, thread management, reply watching, and a local relay server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.leadwise/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("chat.base_url", config.DefaultChatBaseURL, "assistant server base URL")
	rootCmd.PersistentFlags().String("chat.token", "", "API token (or set LEADWISE_TOKEN)")
}
