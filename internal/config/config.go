// Package config loads greenie's configuration from defaults, an optional
// YAML file and the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	aiconfig "github.com/mmichie/greenie/pkg/aikit/config"
	"github.com/mmichie/greenie/pkg/search"
)

// Config holds all application configuration
type Config struct {
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Search   SearchConfig   `mapstructure:"search"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// GeminiConfig configures the language model
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// SearchConfig configures Brave Search
type SearchConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ResultCount int           `mapstructure:"result_count"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig configures chat history storage. An empty Path disables it.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures log sinks
type LogConfig struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// envBindings maps config keys to the unprefixed variables the assistant
// has always read
var envBindings = map[string]string{
	"gemini.api_key": "GEMINI_API_KEY",
	"gemini.model":   "GEMINI_MODEL",
	"search.api_key": "BRAVE_API_KEY",
	"server.port":    "PORT",
	"database.path":  "GREENIE_DB_PATH",
	"log.dir":        "GREENIE_LOG_DIR",
	"log.level":      "GREENIE_LOG_LEVEL",
}

// New returns a viper instance with defaults and environment bindings.
// Every key can also be set as GREENIE_<SECTION>_<KEY>.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_tokens", 2048)
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("gemini.max_retries", 0)
	v.SetDefault("gemini.retry_delay", time.Second)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", search.DefaultBraveURL)
	v.SetDefault("search.result_count", search.DefaultCount)
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("search.max_retries", 0)
	v.SetDefault("search.retry_delay", time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.request_timeout", 120*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.path", "")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetEnvPrefix("GREENIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		_ = v.BindEnv(key, env, "GREENIE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	return v
}

// Load reads cfgFile (or .greenie.yaml from $HOME or the working directory when
// cfgFile is empty) into v and returns the validated configuration. A
// missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".greenie")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "server.max_upload_bytes must be positive")
	}
	if c.Server.RequestTimeout < 0 {
		problems = append(problems, "server.request_timeout must not be negative")
	}
	if c.Search.ResultCount < 1 || c.Search.ResultCount > 20 {
		problems = append(problems, fmt.Sprintf("search.result_count %d must be between 1 and 20", c.Search.ResultCount))
	}
	if c.Gemini.MaxRetries < 0 || c.Search.MaxRetries < 0 {
		problems = append(problems, "max_retries must not be negative")
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		problems = append(problems, "gemini.temperature must be between 0 and 2")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ProviderConfig converts the Gemini section into provider configuration
func (g GeminiConfig) ProviderConfig() aiconfig.Config {
	return aiconfig.NewConfig(
		aiconfig.WithAPIKey(g.APIKey),
		aiconfig.WithModel(g.Model),
		aiconfig.WithBaseURL(g.BaseURL),
		aiconfig.WithTemperature(g.Temperature),
		aiconfig.WithMaxTokens(g.MaxTokens),
		aiconfig.WithTimeout(g.Timeout),
		aiconfig.WithRetries(g.MaxRetries, g.RetryDelay),
	)
}

// BraveConfig converts the search section into client configuration
func (s SearchConfig) BraveConfig() search.BraveConfig {
	return search.BraveConfig{
		APIKey:     s.APIKey,
		BaseURL:    s.BaseURL,
		Count:      s.ResultCount,
		Timeout:    s.Timeout,
		MaxRetries: s.MaxRetries,
		RetryDelay: s.RetryDelay,
	}
}
