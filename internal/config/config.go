// Package config loads and validates the reply gateway configuration.
//
// DESIGN: The gateway works with zero files - DefaultConfig() carries the
// built-in provider table. A YAML file overrides it for self-hosted or
// proxied deployments. Supports ${VAR:-default} env expansion so credentials
// and base URLs never live in the file itself.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Kind identifies the upstream API shape a provider speaks.
type Kind string

const (
	// KindMessages is the message-array API (fixed host, /v1/messages).
	KindMessages Kind = "messages"

	// KindBedrock is the message-array API hosted on Bedrock, SigV4-signed.
	KindBedrock Kind = "bedrock"

	// KindChat is the plain OpenAI-compatible chat-completions API.
	KindChat Kind = "chat"

	// KindChatTools is chat-completions with the provider's builtin
	// web-search function driven through an inline tool-calling loop.
	KindChatTools Kind = "chat_tools"

	// KindResponses is the responses API with a server-side web_search tool
	// and an OpenAI-compatible /chat/completions fallback endpoint.
	KindResponses Kind = "responses"
)

// Provider describes one upstream AI service.
type Provider struct {
	Kind    Kind   `yaml:"kind"`
	BaseURL string `yaml:"base_url"`

	// Thinking marks the one chat-completions provider whose protocol
	// accepts the thinking:{type} request field.
	Thinking bool `yaml:"thinking,omitempty"`

	// Region selects the AWS region for KindBedrock providers.
	Region string `yaml:"region,omitempty"`
}

// Defaults are the environment-driven fallbacks the calling layer applies
// when a chat has no explicit settings. The gateway itself always receives
// these as explicit parameters.
type Defaults struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	ContextTokens int    `yaml:"context_tokens"`
}

// Files configures the chat-platform file API the image resolver talks to.
type Files struct {
	BaseURL string `yaml:"base_url"`
}

// Reply configures response post-processing.
type Reply struct {
	// SanitizeHTML strips markup from generated text before truncation, for
	// chat platforms that reject HTML. Off by default.
	SanitizeHTML bool `yaml:"sanitize_html"`
}

// Logging configures the zerolog wrapper.
type Logging struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
	Output string `yaml:"output"` // stdout|stderr|<file path>
}

// Config is the root configuration.
type Config struct {
	Providers map[string]Provider `yaml:"providers"`
	Defaults  Defaults            `yaml:"defaults"`
	Files     Files               `yaml:"files"`
	Reply     Reply               `yaml:"reply"`
	Logging   Logging             `yaml:"logging"`
}

// DefaultConfig returns the built-in provider table. Bedrock is not listed
// by default because constructing its signing transport requires resolvable
// AWS credentials; add a kind:bedrock provider in YAML to enable it.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]Provider{
			"anthropic": {Kind: KindMessages, BaseURL: "https://api.anthropic.com"},
			"zhipu":     {Kind: KindChat, BaseURL: "https://open.bigmodel.cn/api/paas/v4", Thinking: true},
			"moonshot":  {Kind: KindChatTools, BaseURL: "https://api.moonshot.ai/v1"},
			"grok":      {Kind: KindResponses, BaseURL: "https://api.x.ai/v1"},
		},
		Defaults: Defaults{
			Provider:      "anthropic",
			Model:         "claude-sonnet-4-20250514",
			ContextTokens: 4000,
		},
		Files:   Files{BaseURL: "https://api.telegram.org"},
		Logging: Logging{Level: "info", Format: "json", Output: "stderr"},
	}
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file, merged over DefaultConfig().
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes over the defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	for name, p := range c.Providers {
		switch p.Kind {
		case KindMessages, KindBedrock, KindChat, KindChatTools, KindResponses:
		default:
			return fmt.Errorf("provider %q: unknown kind %q", name, p.Kind)
		}
		if p.BaseURL == "" {
			return fmt.Errorf("provider %q: base_url is required", name)
		}
	}
	if c.Defaults.Provider != "" {
		if _, ok := c.Providers[c.Defaults.Provider]; !ok {
			return fmt.Errorf("defaults.provider %q is not a configured provider", c.Defaults.Provider)
		}
	}
	if c.Defaults.ContextTokens < 0 {
		return fmt.Errorf("defaults.context_tokens must not be negative")
	}
	return nil
}
