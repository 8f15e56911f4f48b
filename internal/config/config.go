package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Env             string        `yaml:"env"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigin      string        `yaml:"cors_origin"`
}

// WebSocketOrigins returns the Origin host patterns the activity feed accepts.
// It follows cors_origin so browsers allowed to call the API may also subscribe.
func (s ServerConfig) WebSocketOrigins() []string {
	if s.CORSOrigin == "" || s.CORSOrigin == "*" {
		return []string{"*"}
	}
	u, err := url.Parse(s.CORSOrigin)
	if err != nil || u.Host == "" {
		return []string{s.CORSOrigin}
	}
	return []string{u.Host}
}

type DatabaseConfig struct {
	DSN          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	URL           string `yaml:"url"` // пусто: публикация событий выключена
	ChannelPrefix string `yaml:"channel_prefix"`
}

type StageSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	ColorKey string `yaml:"color_key"`
}

type RuleConfig struct {
	Field   string   `yaml:"field"`
	Stages  []string `yaml:"stages"`
	Message string   `yaml:"message"`
}

type PromotionConfig struct {
	EarlyStages     []string `yaml:"early_stages"`
	TargetStage     string   `yaml:"target_stage"`
	BulkSourceStage string   `yaml:"bulk_source_stage"`
	BulkTargetStage string   `yaml:"bulk_target_stage"`
}

type PipelineConfig struct {
	Stages    []StageSeed     `yaml:"stages"`
	Rules     []RuleConfig    `yaml:"rules"`
	Promotion PromotionConfig `yaml:"promotion"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	PDF struct {
		FontPath string `yaml:"font_path"`
	} `yaml:"pdf"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LoadConfig reads CONFIG_PATH (or config/config.yaml) and applies env overrides.
func LoadConfig() *Config {
	cfg, err := Load(getenv("CONFIG_PATH", defaultPath))
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Database.DSN = getenv("DATABASE_URL", cfg.Database.DSN)
	cfg.Redis.URL = getenv("REDIS_URL", cfg.Redis.URL)
	cfg.Auth.JWTSecret = getenv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Server.Port = getenvInt("PORT", cfg.Server.Port)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Redis.ChannelPrefix == "" {
		cfg.Redis.ChannelPrefix = "leadflow:pipeline:"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Pipeline.Stages) == 0 {
		return fmt.Errorf("pipeline.stages must list at least one system stage")
	}
	known := make(map[string]bool, len(c.Pipeline.Stages))
	for _, s := range c.Pipeline.Stages {
		if s.ID == "" {
			return fmt.Errorf("pipeline.stages: id is required (name %q)", s.Name)
		}
		if known[s.ID] {
			return fmt.Errorf("pipeline.stages: duplicate id %q", s.ID)
		}
		known[s.ID] = true
	}
	p := c.Pipeline.Promotion
	for _, id := range append(append([]string{}, p.EarlyStages...), p.TargetStage, p.BulkSourceStage, p.BulkTargetStage) {
		if id != "" && !known[id] {
			return fmt.Errorf("pipeline.promotion: unknown stage %q", id)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
