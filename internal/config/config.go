// Package config loads the TOML configuration of the assistant and applies
// environment overrides on top of it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// ConfigFormatVersion is the current version of the configuration file format
const ConfigFormatVersion = "0.1.0"

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "curatai.conf"

// CatalogConfig holds the catalog service endpoint and credentials.
type CatalogConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	Username       string `toml:"username" validate:"required"`
	Password       string `toml:"password" validate:"required"`
	TokenName      string `toml:"token_name" validate:"required"`
	RequestTimeout string `toml:"request_timeout" validate:"required,duration"`
}

// AgentConfig selects the LLM provider and bounds the tool-calling loop.
type AgentConfig struct {
	Provider         string `toml:"provider" validate:"oneof=anthropic openai"`
	Model            string `toml:"model"`
	MaxTokens        int    `toml:"max_tokens" validate:"gte=256"`
	MaxToolRounds    int    `toml:"max_tool_rounds" validate:"gte=1,lte=50"`
	SystemPromptFile string `toml:"system_prompt_file"`
	AnthropicAPIKey  string `toml:"-"`
	OpenAIAPIKey     string `toml:"-"`
}

// PropagationConfig bounds the wait on bulk field propagation jobs.
type PropagationConfig struct {
	PollInterval  string `toml:"poll_interval" validate:"required,duration"`
	MaxPolls      int    `toml:"max_polls" validate:"gte=1"`
	SubmitTimeout string `toml:"submit_timeout" validate:"required,duration"`
}

// ServerConfig holds chat server related configuration
type ServerConfig struct {
	Port       string `toml:"port" validate:"required,numeric"`
	HandleCORS bool   `toml:"handle_cors"`
}

// TelemetryConfig holds logging and tracing configuration
type TelemetryConfig struct {
	LogLevel     string `toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogConsole   bool   `toml:"log_console"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Config holds all configuration parameters
type Config struct {
	FormatVersion string            `toml:"format_version" validate:"required"`
	Catalog       CatalogConfig     `toml:"catalog"`
	Agent         AgentConfig       `toml:"agent"`
	Propagation   PropagationConfig `toml:"propagation"`
	Server        ServerConfig      `toml:"server"`
	Telemetry     TelemetryConfig   `toml:"telemetry"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		FormatVersion: ConfigFormatVersion,
		Catalog: CatalogConfig{
			TokenName:      "AlationAPI",
			RequestTimeout: "30s",
		},
		Agent: AgentConfig{
			Provider:      "anthropic",
			MaxTokens:     4096,
			MaxToolRounds: 12,
		},
		Propagation: PropagationConfig{
			PollInterval:  "1s",
			MaxPolls:      60,
			SubmitTimeout: "10s",
		},
		Server: ServerConfig{
			Port: "8000",
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			ServiceName: "curatai",
		},
	}
}

// Environment variables that override file values.
const (
	EnvUsername     = "ALATION_USERNAME"
	EnvPassword     = "ALATION_PASSWORD"
	EnvBaseURL      = "ALATION_BASE_URL"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvLogLevel     = "CURATAI_LOG_LEVEL"
)

// LoadConfig reads filename on top of the defaults, applies environment
// overrides and validates the result. An empty filename skips the file;
// a missing default file is not an error.
func LoadConfig(filename string) (*Config, error) {
	return load(filename, os.LookupEnv)
}

func load(filename string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if filename != "" {
		content, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if _, err := toml.Decode(string(content), cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %v", err)
			}
		case os.IsNotExist(err) && filename == DefaultConfigFile:
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	applyEnv(cfg, lookup)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Catalog.Username, EnvUsername)
	set(&cfg.Catalog.Password, EnvPassword)
	set(&cfg.Catalog.BaseURL, EnvBaseURL)
	set(&cfg.Agent.AnthropicAPIKey, EnvAnthropicKey)
	set(&cfg.Agent.OpenAIAPIKey, EnvOpenAIKey)
	set(&cfg.Telemetry.OTLPEndpoint, EnvOTLPEndpoint)
	set(&cfg.Telemetry.LogLevel, EnvLogLevel)
	cfg.Catalog.BaseURL = strings.TrimRight(cfg.Catalog.BaseURL, "/")
}

// ValidateConfig checks if all required configuration values are present and valid
func ValidateConfig(cfg *Config) error {
	if cfg.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}
	if err := V().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed on '%s'", fieldPath(fe.Namespace()), fe.Tag())
		}
		return err
	}
	return nil
}

// fieldPath turns "Config.Catalog.BaseURL" into "catalog.BaseURL".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	if i := strings.Index(ns, "."); i > 0 {
		return strings.ToLower(ns[:i]) + ns[i:]
	}
	return ns
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// V returns the shared validator with the duration rule registered.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			_, err := ParseDuration(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// ParseDuration parses a duration string in the format "<number><unit>" where unit can be:
// - s: seconds
// - m: minutes
// - h: hours
// - d: days
func ParseDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative duration: %s", input)
	}

	var duration time.Duration
	switch unit {
	case "s":
		duration = time.Duration(value) * time.Second
	case "m":
		duration = time.Duration(value) * time.Minute
	case "h":
		duration = time.Duration(value) * time.Hour
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}

	return duration, nil
}

// MustDuration is for values already checked by ValidateConfig.
func MustDuration(input string) time.Duration {
	d, err := ParseDuration(input)
	if err != nil {
		panic(fmt.Sprintf("invalid duration %q: %v", input, err))
	}
	return d
}

// GetRequestTimeout returns the per-request catalog timeout.
func (c *CatalogConfig) GetRequestTimeout() time.Duration {
	return MustDuration(c.RequestTimeout)
}

func (p *PropagationConfig) GetPollInterval() time.Duration {
	return MustDuration(p.PollInterval)
}

func (p *PropagationConfig) GetSubmitTimeout() time.Duration {
	return MustDuration(p.SubmitTimeout)
}

// APIKey returns the key for the configured provider.
func (a *AgentConfig) APIKey() string {
	if a.Provider == "openai" {
		return a.OpenAIAPIKey
	}
	return a.AnthropicAPIKey
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	r := *c
	if r.Catalog.Password != "" {
		r.Catalog.Password = "********"
	}
	r.Agent.AnthropicAPIKey = mask(r.Agent.AnthropicAPIKey)
	r.Agent.OpenAIAPIKey = mask(r.Agent.OpenAIAPIKey)
	return &r
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return "****" + s[len(s)-4:]
}
