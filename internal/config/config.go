// Package config loads bpreader settings from an optional YAML file and
// BPREADER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chriskillpack/bpreader"
	"github.com/chriskillpack/bpreader/internal/logging"
)

const envPrefix = "BPREADER"

type Config struct {
	Backend           string        `mapstructure:"backend"` // openai | llama | ollama
	Model             string        `mapstructure:"model"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`

	Image   string `mapstructure:"image"`
	EnvFile string `mapstructure:"env_file"`
	Prompts string `mapstructure:"prompts"`

	OpenAI OpenAIConfig `mapstructure:"openai"`
	Llama  LlamaConfig  `mapstructure:"llama"`
	Ollama OllamaConfig `mapstructure:"ollama"`

	Limits bpreader.Limits `mapstructure:"limits"`
	Log    logging.Config  `mapstructure:"log"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LlamaConfig struct {
	Server string `mapstructure:"server"`
	Seed   int    `mapstructure:"seed"`
}

type OllamaConfig struct {
	Server string `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "openai")
	v.SetDefault("model", "")
	v.SetDefault("max_retries", 3)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("requests_per_minute", 20)

	v.SetDefault("image", "../tmp_images/bp-test.png")
	v.SetDefault("env_file", "")
	v.SetDefault("prompts", bpreader.DefaultPromptPath)

	v.SetDefault("openai.base_url", "")
	v.SetDefault("llama.server", "http://localhost:8080")
	v.SetDefault("llama.seed", 385480504)
	v.SetDefault("ollama.server", "http://localhost:11434")

	d := bpreader.DefaultLimits
	v.SetDefault("limits.systolic.min", d.Systolic.Min)
	v.SetDefault("limits.systolic.max", d.Systolic.Max)
	v.SetDefault("limits.diastolic.min", d.Diastolic.Min)
	v.SetDefault("limits.diastolic.max", d.Diastolic.Max)
	v.SetDefault("limits.pulse.min", d.Pulse.Min)
	v.SetDefault("limits.pulse.max", d.Pulse.Max)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads configuration. If path is empty bpreader.yaml is looked for in
// the working directory and ./config, and its absence is not an error. An
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bpreader")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.Backend {
	case "openai", "llama", "ollama":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}

	for name, r := range map[string]bpreader.Range{
		"systolic":  c.Limits.Systolic,
		"diastolic": c.Limits.Diastolic,
		"pulse":     c.Limits.Pulse,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("limits.%s: min %d above max %d", name, r.Min, r.Max)
		}
	}

	return nil
}
