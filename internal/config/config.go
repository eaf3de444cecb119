package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

// Candidate sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Config holds the ideahub configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Matching  MatchingConfig  `yaml:"matching"`
	Auth      AuthConfig      `yaml:"auth"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"` // websocket origins; empty allows all
}

// DatabaseConfig holds idea store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds vectorizer settings.
type EmbeddingConfig struct {
	Provider          string      `yaml:"provider"` // openai, http (default: openai)
	APIKey            string      `yaml:"api_key"`
	BaseURL           string      `yaml:"base_url"`
	Model             string      `yaml:"model"`
	Dimensions        int         `yaml:"dimensions"`
	RequestDimensions bool        `yaml:"request_dimensions"` // send dimensions to the API
	MaxInputChars     int         `yaml:"max_input_chars"`
	TimeoutSec        int         `yaml:"timeout_sec"`
	Cache             CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// LLMConfig holds chat model settings for tag and group-name suggestion.
type LLMConfig struct {
	APIKey           string `yaml:"api_key"` // empty disables the features
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	TagLanguage      string `yaml:"tag_language"`
	DefaultGroupName string `yaml:"default_group_name"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// MatchingConfig holds match orchestrator settings.
type MatchingConfig struct {
	Threshold        *float64 `yaml:"threshold"`
	CandidateCount   int      `yaml:"candidate_count"`
	Source           string   `yaml:"source"` // local, remote (default: remote on redis, local on sqlite)
	StrictDimensions bool     `yaml:"strict_dimensions"`
	EmbedTimeoutSec  int      `yaml:"embed_timeout_sec"`
}

// RealtimeConfig holds realtime feed settings.
type RealtimeConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; existing variables win.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "ideahub.db"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 2000
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Cache.TTLSec <= 0 {
		c.Embedding.Cache.TTLSec = 7 * 24 * 3600
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.siliconflow.cn/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "Qwen/Qwen2.5-7B-Instruct"
	}
	if c.LLM.TagLanguage == "" {
		c.LLM.TagLanguage = "English"
	}
	if c.LLM.DefaultGroupName == "" {
		c.LLM.DefaultGroupName = "Idea Circle"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	if c.Matching.Threshold == nil {
		t := 0.8
		c.Matching.Threshold = &t
	}
	if c.Matching.CandidateCount <= 0 {
		c.Matching.CandidateCount = 20
	}
	if c.Matching.Source == "" {
		c.Matching.Source = SourceRemote
		if c.Database.Driver == DriverSQLite {
			c.Matching.Source = SourceLocal
		}
	}
	if c.Matching.EmbedTimeoutSec <= 0 {
		c.Matching.EmbedTimeoutSec = 15
	}

	if c.Realtime.Enabled == nil {
		on := true
		c.Realtime.Enabled = &on
	}
	if c.Realtime.Channel == "" {
		c.Realtime.Channel = "ideahub:events"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverSQLite:
		if c.Matching.Source == SourceRemote {
			return fmt.Errorf("matching.source %q needs driver %q", SourceRemote, DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverSQLite, c.Database.Driver)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", ProviderOpenAI)
		}
	case ProviderHTTP:
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for provider %q", ProviderHTTP)
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderHTTP, c.Embedding.Provider)
	}

	if t := *c.Matching.Threshold; math.IsNaN(t) || t < -1 || t > 1 {
		return fmt.Errorf("matching.threshold must be in [-1, 1], got %v", t)
	}
	switch c.Matching.Source {
	case SourceLocal, SourceRemote:
	default:
		return fmt.Errorf("matching.source must be %q or %q, got %q", SourceLocal, SourceRemote, c.Matching.Source)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
