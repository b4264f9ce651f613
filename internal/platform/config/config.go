package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvAddress  = "HOST_BRIDGE_ADDRESS"
	EnvMode     = "HOSTBRIDGE_MODE"
	EnvLogLevel = "HOSTBRIDGE_LOG_LEVEL"

	DefaultPort    = 26041
	DefaultAddress = "localhost:26041"
)

type Mode string

const (
	ModeEmbedded Mode = "embedded"
	ModeDetached Mode = "detached"
	ModePlugin   Mode = "plugin"
)

func (m Mode) Validate() error {
	switch m {
	case ModeEmbedded, ModeDetached, ModePlugin:
		return nil
	default:
		return fmt.Errorf("unknown deployment mode: %q", string(m))
	}
}

type Retry struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	PerAttemptTimeout time.Duration `yaml:"per_attempt_timeout"`
	InterAttemptDelay time.Duration `yaml:"inter_attempt_delay"`
}

// Host describes the editor the bridge stands in for. A headless host has no
// window or diff view.
type Host struct {
	Platform     string   `yaml:"platform"`
	Version      string   `yaml:"version"`
	URIScheme    string   `yaml:"uri_scheme"`
	ExtensionID  string   `yaml:"extension_id"`
	Telemetry    bool     `yaml:"telemetry"`
	Workspace    []string `yaml:"workspace"`
	CanTerminate bool     `yaml:"can_terminate"`
	Headless     bool     `yaml:"headless"`
}

type Config struct {
	Mode         Mode   `yaml:"mode"`
	Address      string `yaml:"address"`
	PluginBinary string `yaml:"plugin_binary"`
	StatusAddr   string `yaml:"status_addr"`
	LogLevel     string `yaml:"log_level"`
	Retry        Retry  `yaml:"retry"`
	Host         Host   `yaml:"host"`
}

func Default() Config {
	return Config{
		Mode:     ModeEmbedded,
		Address:  DefaultAddress,
		LogLevel: "info",
		Retry: Retry{
			MaxAttempts:       3,
			PerAttemptTimeout: 5 * time.Second,
			InterAttemptDelay: 500 * time.Millisecond,
		},
		Host: Host{
			Platform:     "hostbridge",
			Version:      "dev",
			URIScheme:    "vscode",
			ExtensionID:  "saoudrizwan.claude-dev",
			Telemetry:    true,
			CanTerminate: true,
		},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if v, ok := lookup(EnvAddress); ok && strings.TrimSpace(v) != "" {
		cfg.Address = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMode); ok && strings.TrimSpace(v) != "" {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Mode.Validate(); err != nil {
		return err
	}
	if c.Mode == ModeDetached && c.Address == "" {
		return errors.New("detached mode requires an address")
	}
	if c.Mode == ModePlugin && c.PluginBinary == "" {
		return errors.New("plugin mode requires plugin_binary")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.PerAttemptTimeout <= 0 {
		return errors.New("retry.per_attempt_timeout must be positive")
	}
	if c.Retry.InterAttemptDelay < 0 {
		return errors.New("retry.inter_attempt_delay must not be negative")
	}
	return nil
}
