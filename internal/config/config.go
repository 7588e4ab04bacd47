package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheAdaptoid/Altron-Core/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Models    ModelsConfig    `koanf:"models"`
	Inference InferenceConfig `koanf:"inference"`
	Store     StoreConfig     `koanf:"store"`
	Agent     AgentConfig     `koanf:"agent"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

// ModelsConfig is the role-to-model table. It is resolved once at startup
// and handed to the agent by reference; nothing reads the environment after
// Load returns.
type ModelsConfig struct {
	Default string            `koanf:"default"`
	Roles   map[string]string `koanf:"roles"`
}

// ForRole resolves a model id for an agent role, falling back to the
// default model when the role has no explicit mapping.
func (m ModelsConfig) ForRole(role string) string {
	if id, ok := m.Roles[strings.ToLower(strings.TrimSpace(role))]; ok && id != "" {
		return id
	}
	return m.Default
}

type InferenceConfig struct {
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type StoreConfig struct {
	Path         string `koanf:"path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type AgentConfig struct {
	Name             string `koanf:"name"`
	Role             string `koanf:"role"`
	MaxToolRounds    int    `koanf:"max_tool_rounds"`
	PersistReasoning bool   `koanf:"persist_reasoning"`
	TitleModel       string `koanf:"title_model"`
}

const (
	DefaultServerPort            = 8000
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "10s"
	DefaultServerShutdownTimeout = "5s"
	DefaultModel                 = "qwen/qwen3-4b-thinking-2507"
	DefaultAgentRole             = "generalist"
	DefaultInferenceBaseURL      = "http://localhost:1234"
	DefaultInferenceAPIKey       = "lm-studio"
	DefaultInferenceTimeout      = "120s"
	DefaultStoreLockTimeout      = "30s"
	DefaultStoreLockRetry        = "100ms"
	DefaultStoreLockMaxRetry     = 300
	DefaultAgentName             = "Altron"
	DefaultAgentMaxToolRounds    = 8
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":             DefaultServerPort,
		"server.log_level":        DefaultServerLogLevel,
		"server.read_timeout":     DefaultServerReadTimeout,
		"server.write_timeout":    DefaultServerWriteTimeout,
		"server.shutdown_timeout": DefaultServerShutdownTimeout,
		"models.default":          DefaultModel,
		"models.roles": map[string]string{
			DefaultAgentRole: DefaultModel,
		},
		"inference.base_url":        DefaultInferenceBaseURL,
		"inference.api_key":         DefaultInferenceAPIKey,
		"inference.request_timeout": DefaultInferenceTimeout,
		"store.path":                filepath.Join(os.Getenv("HOME"), ".altron", "threads"),
		"store.lock_timeout":        DefaultStoreLockTimeout,
		"store.lock_retry":          DefaultStoreLockRetry,
		"store.lock_max_retry":      DefaultStoreLockMaxRetry,
		"agent.name":                DefaultAgentName,
		"agent.role":                DefaultAgentRole,
		"agent.max_tool_rounds":     DefaultAgentMaxToolRounds,
		"agent.persist_reasoning":   false,
		"agent.title_model":         "",
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
			globalPath := filepath.Join(home, ".altron", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("ALTRON_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ALTRON_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Post-Process: honor the LM Studio host variable the way the original
	// deployment did, unless an explicit base URL won above.
	if host := strings.TrimSpace(os.Getenv("LM_STUDIO_HOST")); host != "" && cfg.Inference.BaseURL == DefaultInferenceBaseURL {
		cfg.Inference.BaseURL = "http://" + host
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Inference.APIKey == DefaultInferenceAPIKey {
		cfg.Inference.APIKey = key
	}

	storePath, err := pathutil.Expand(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	cfg.Store.Path = storePath

	return &cfg, nil
}
