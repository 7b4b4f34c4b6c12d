package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Speech    SpeechConfig    `yaml:"speech"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// FeedbackConfig points at the optional external AI feedback service.
type FeedbackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// SpeechConfig points at the optional speech synthesizer. When disabled,
// accepted cues are spoken through the local fallback only.
type SpeechConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Timeout returns the feedback call timeout, defaulting to 2.5s.
func (f FeedbackConfig) Timeout() time.Duration {
	if f.TimeoutMS <= 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(f.TimeoutMS) * time.Millisecond
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPCOACH_ and underscore-separated
// paths:
//
//	REPCOACH_SERVER_HOST, REPCOACH_SERVER_PORT, REPCOACH_AUTH_API_KEY,
//	REPCOACH_FEEDBACK_URL, REPCOACH_SPEECH_URL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPCOACH_FEEDBACK_URL"); v != "" {
		cfg.Feedback.URL = v
		cfg.Feedback.Enabled = true
	}
	if v := os.Getenv("REPCOACH_SPEECH_URL"); v != "" {
		cfg.Speech.URL = v
		cfg.Speech.Enabled = true
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Feedback.Enabled && c.Feedback.URL == "" {
		return fmt.Errorf("feedback.url is required when feedback is enabled")
	}
	if c.Speech.Enabled && c.Speech.URL == "" {
		return fmt.Errorf("speech.url is required when speech is enabled")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
