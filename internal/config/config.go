// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres|memory
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig is optional; an empty URL disables caching and switches the
// rate limiter to its in-process variant.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // openai|gemini|metis
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	MetisKey        string `yaml:"metis_key"`
	MetisBaseURL    string `yaml:"metis_base_url"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type ClassifierConfig struct {
	Strategy        string        `yaml:"strategy"` // local|remote
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxInputTokens  int           `yaml:"max_input_tokens"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

type AuthConfig struct {
	Provider    string `yaml:"provider"` // jwt|supabase|header
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
}

// StorageConfig configures the S3-compatible photo bucket. An empty endpoint
// disables photo uploads.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	AI         AIConfig         `yaml:"ai"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads flags, then .env, then the YAML file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(configPath, dev)
}

// Load parses the YAML file at path. ${VAR} references are expanded from the
// environment before parsing.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 25 * time.Second
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.MetisBaseURL == "" {
		cfg.AI.MetisBaseURL = "https://api.metisai.ir/openai/v1"
	}

	if cfg.Classifier.Strategy == "" {
		cfg.Classifier.Strategy = "local"
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = cfg.AI.DefaultModel
	}
	if cfg.Classifier.Timeout <= 0 {
		cfg.Classifier.Timeout = 20 * time.Second
	}
	if cfg.Classifier.MaxInputTokens <= 0 {
		cfg.Classifier.MaxInputTokens = 1500
	}
	if cfg.Classifier.MaxOutputTokens <= 0 {
		cfg.Classifier.MaxOutputTokens = 450
	}
	cfg.Classifier.CacheTTL = normalizeTTL(cfg.Classifier.CacheTTL)

	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = "jwt"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "job-photos"
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 60
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case "memory":
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}

	switch cfg.Classifier.Strategy {
	case "local":
	case "remote":
		if cfg.AIKey() == "" {
			return fmt.Errorf("classifier.strategy=remote needs an API key for ai.provider %q", cfg.AI.Provider)
		}
	default:
		return fmt.Errorf("classifier.strategy %q is not supported", cfg.Classifier.Strategy)
	}

	switch cfg.Auth.Provider {
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required")
		}
	case "supabase":
		if cfg.Auth.SupabaseURL == "" || cfg.Auth.SupabaseKey == "" {
			return errors.New("auth.supabase_url and auth.supabase_key are required")
		}
	case "header":
		if !cfg.Runtime.Dev {
			return errors.New("auth.provider=header is only allowed with -dev")
		}
	default:
		return fmt.Errorf("auth.provider %q is not supported", cfg.Auth.Provider)
	}
	return nil
}

// AIKey returns the credential for the configured provider.
func (cfg *Config) AIKey() string {
	switch strings.ToLower(cfg.AI.Provider) {
	case "gemini":
		return cfg.AI.GeminiKey
	case "metis":
		return cfg.AI.MetisKey
	default:
		return cfg.AI.OpenAIKey
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
