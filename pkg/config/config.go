package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/nikogura/sop-writer/pkg/llm"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Provider        string        `mapstructure:"provider" validate:"oneof=openai anthropic gemini"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url" validate:"omitempty,url"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	OutputDir       string        `mapstructure:"output_dir"`
	Server          ServerConfig  `mapstructure:"server"`
	Log             LogConfig     `mapstructure:"log"`
	Pandoc          PandocConfig  `mapstructure:"pandoc"`
}

// ServerConfig holds the HTTP form settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	// RatePerMinute limits generations per client IP. Zero disables limiting.
	RatePerMinute int `mapstructure:"rate_per_minute" validate:"gte=0"`
	Burst         int `mapstructure:"burst" validate:"gte=1"`
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// PandocConfig holds pandoc-related configuration.
type PandocConfig struct {
	TemplatePath string `mapstructure:"template_path"`
}

// Defaults.
const (
	DefaultProvider       = llm.ProviderOpenAI
	DefaultMaxAttempts    = 4
	DefaultRequestTimeout = 120 * time.Second
	DefaultAddr           = ":8080"
	DefaultRatePerMinute  = 6
	DefaultBurst          = 3
)

// envBindings maps config keys to the environment variables that override them.
// The first non-empty variable wins.
//
//nolint:gochecknoglobals // static lookup table
var envBindings = map[string][]string{
	"provider":          {"SOP_PROVIDER"},
	"model":             {"SOP_MODEL"},
	"openai_api_key":    {"OPENAI_API_KEY"},
	"openai_base_url":   {"OPENAI_BASE_URL"},
	"anthropic_api_key": {"ANTHROPIC_API_KEY"},
	"gemini_api_key":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"log.level":         {"SOP_LOG_LEVEL"},
	"server.addr":       {"SOP_ADDR"},
}

// DefaultPath returns $HOME/.sop-writer/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".sop-writer", "config.json")
	return path, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("model", "")
	v.SetDefault("temperature", llm.DefaultTemperature)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("request_timeout", DefaultRequestTimeout.String())
	v.SetDefault("output_dir", ".")
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.rate_per_minute", DefaultRatePerMinute)
	v.SetDefault("server.burst", DefaultBurst)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("pandoc.template_path", "")
}

// LoadEnvFile loads a .env file from the working directory when one exists.
// Variables already set in the environment are left alone.
func LoadEnvFile() (err error) {
	_, err = os.Stat(".env")
	if os.IsNotExist(err) {
		err = nil
		return err
	}

	err = godotenv.Load(".env")
	if err != nil {
		err = errors.Wrap(err, "failed to load .env")
		return err
	}
	return err
}

// Load reads configuration from file with environment variable overrides.
// An empty configPath uses DefaultPath, and a missing default file is not an
// error. An explicitly named file must exist.
func Load(configPath string) (cfg Config, err error) {
	v := viper.New()
	setDefaults(v)

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		err = v.BindEnv(args...)
		if err != nil {
			err = errors.Wrapf(err, "failed to bind environment for %s", key)
			return cfg, err
		}
	}

	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			path = ""
		}
		err = nil
	}

	if path != "" {
		v.SetConfigFile(path)
		err = v.ReadInConfig()
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				err = errors.Errorf("config file not found: %s (run 'sop-writer init' to create)", path)
				return cfg, err
			}
			err = errors.Wrapf(err, "failed to read config file: %s", path)
			return cfg, err
		}
	}

	err = v.Unmarshal(&cfg)
	if err != nil {
		err = errors.Wrap(err, "failed to parse config")
		return cfg, err
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Validate checks field ranges. API keys are not checked here: a missing key
// for the selected provider is reported when the backend is built.
func (c *Config) Validate() (err error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err = v.Struct(c)
	if err == nil {
		return err
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		err = errors.Wrap(err, "invalid config")
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Namespace()+" fails "+fe.Tag())
	}
	err = errors.New(strings.Join(msgs, "; "))
	return err
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() (key string) {
	switch c.Provider {
	case llm.ProviderAnthropic:
		key = c.AnthropicAPIKey
	case llm.ProviderGemini:
		key = c.GeminiAPIKey
	default:
		key = c.OpenAIAPIKey
	}
	return key
}

// LLMSettings returns the backend selection for llm.NewCompleter.
func (c *Config) LLMSettings() (s llm.Settings) {
	s = llm.Settings{
		Provider: c.Provider,
		APIKey:   c.APIKey(),
		Model:    c.Model,
	}
	if c.Provider == llm.ProviderOpenAI {
		s.BaseURL = c.OpenAIBaseURL
	}
	return s
}

// InitConfig creates a default configuration file. Environment values are not
// written.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigPermissions(0600)

	err = v.SafeWriteConfigAs(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
