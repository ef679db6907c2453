package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leadwise/leadwise/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const (
	DefaultServerLogLevel = "info"

	DefaultChatBaseURL        = "https://app.leadwise.io"
	DefaultChatStreamPath     = "/api/assistant/stream"
	DefaultChatMessagesPath   = "/api/assistant/messages"
	DefaultChatNewThreadPath  = "/api/assistant/new-thread"
	DefaultChatIdleTimeout    = "120s"
	DefaultChatRequestTimeout = "30s"
	DefaultChatDisplayFloor   = "300ms"

	DefaultStoreLockTimeout  = "5s"
	DefaultStoreLockRetry    = "100ms"
	DefaultStoreLockMaxRetry = 10

	DefaultWatchSchedule = "@every 1m"

	DefaultRelayAddr     = ":8480"
	DefaultRelayProvider = "anthropic"
	DefaultRelayModel    = "claude-sonnet-4-20250514"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Chat   ChatConfig   `koanf:"chat"`
	Store  StoreConfig  `koanf:"store"`
	Watch  WatchConfig  `koanf:"watch"`
	Relay  RelayConfig  `koanf:"relay"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type ChatConfig struct {
	BaseURL        string `koanf:"base_url"`
	StreamPath     string `koanf:"stream_path"`
	MessagesPath   string `koanf:"messages_path"`
	NewThreadPath  string `koanf:"new_thread_path"`
	Token          string `koanf:"token"`
	IdleTimeout    string `koanf:"idle_timeout"`
	RequestTimeout string `koanf:"request_timeout"`
	DisplayFloor   string `koanf:"display_floor"`
}

type StoreConfig struct {
	Path         string `koanf:"path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type WatchConfig struct {
	Schedule string `koanf:"schedule"`
}

type RelayConfig struct {
	Addr       string `koanf:"addr"`
	Provider   string `koanf:"provider"`
	Model      string `koanf:"model"`
	APIKey     string `koanf:"api_key"`
	ScriptPath string `koanf:"script_path"`
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.log_level":     DefaultServerLogLevel,
		"chat.base_url":        DefaultChatBaseURL,
		"chat.stream_path":     DefaultChatStreamPath,
		"chat.messages_path":   DefaultChatMessagesPath,
		"chat.new_thread_path": DefaultChatNewThreadPath,
		"chat.idle_timeout":    DefaultChatIdleTimeout,
		"chat.request_timeout": DefaultChatRequestTimeout,
		"chat.display_floor":   DefaultChatDisplayFloor,
		"store.path":           filepath.Join(os.Getenv("HOME"), ".leadwise", "prefs.json"),
		"store.lock_timeout":   DefaultStoreLockTimeout,
		"store.lock_retry":     DefaultStoreLockRetry,
		"store.lock_max_retry": DefaultStoreLockMaxRetry,
		"watch.schedule":       DefaultWatchSchedule,
		"relay.addr":           DefaultRelayAddr,
		"relay.provider":       DefaultRelayProvider,
		"relay.model":          DefaultRelayModel,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".leadwise", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("LEADWISE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LEADWISE_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	if cfg.Relay.APIKey == "" {
		switch cfg.Relay.Provider {
		case "anthropic":
			cfg.Relay.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.Relay.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Chat.Token == "" {
		cfg.Chat.Token = os.Getenv("LEADWISE_TOKEN")
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	storePath, err := pathutil.Expand(cfg.Store.Path)
	if err != nil {
		return err
	}
	cfg.Store.Path = storePath

	scriptPath, err := pathutil.Expand(cfg.Relay.ScriptPath)
	if err != nil {
		return err
	}
	cfg.Relay.ScriptPath = scriptPath

	return nil
}
