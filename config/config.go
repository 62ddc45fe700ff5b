// Package config loads process configuration from defaults, an optional YAML
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Desarso/stockagent/logger"
	"github.com/Desarso/stockagent/memory"
	"github.com/Desarso/stockagent/stores"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Model    ModelConfig    `mapstructure:"model"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Log      logger.Config  `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig either carries a full DSN or the parts to build one.
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

type ModelConfig struct {
	Provider    string  `mapstructure:"provider"` // ollama, openrouter, gemini
	Name        string  `mapstructure:"name"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	SiteURL     string  `mapstructure:"site_url"`
	SiteName    string  `mapstructure:"site_name"`
}

type AgentConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	ModelTimeout  time.Duration `mapstructure:"model_timeout"`
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`
	Timezone      string        `mapstructure:"timezone"`
	ReadOnlyRoles []string      `mapstructure:"read_only_roles"`
}

type MemoryConfig struct {
	Backend       string        `mapstructure:"backend"` // memory, redis
	MaxMessages   int           `mapstructure:"max_messages"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "stockagent.sqlite")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.migrate", true)

	v.SetDefault("model.provider", "ollama")
	v.SetDefault("model.name", "nemotron-3-nano:30b-cloud")
	v.SetDefault("model.base_url", "https://ollama.com")
	v.SetDefault("model.temperature", 0.0)

	v.SetDefault("agent.max_iterations", 6)
	v.SetDefault("agent.model_timeout", 60*time.Second)
	v.SetDefault("agent.tool_timeout", 15*time.Second)
	v.SetDefault("agent.timezone", "America/Mexico_City")
	v.SetDefault("agent.read_only_roles", []string{})

	v.SetDefault("memory.backend", "memory")
	v.SetDefault("memory.max_messages", memory.DefaultMaxMessages)
	v.SetDefault("memory.idle_ttl", 2*time.Hour)
	v.SetDefault("memory.sweep_schedule", "*/10 * * * *")
	v.SetDefault("memory.redis.addr", "localhost:6379")
	v.SetDefault("memory.redis.ttl", 24*time.Hour)

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.output", lc.Output)
	v.SetDefault("log.file.filename", lc.File.Filename)
	v.SetDefault("log.file.maxsize", lc.File.MaxSize)
	v.SetDefault("log.file.maxage", lc.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lc.File.MaxBackups)
	v.SetDefault("log.file.compress", lc.File.Compress)
}

// Load reads configuration. path may be empty; a missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names the dashboard deployment already uses.
	_ = v.BindEnv("database.dsn", "DATABASE_URL", "DATABASE_DSN")
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = providerKey(cfg.Model.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerKey reads the API key variable conventional for each provider.
func providerKey(provider string) string {
	switch provider {
	case "ollama":
		return os.Getenv("OLLAMA_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("invalid database.type %q, must be sqlite, postgres or mysql", c.Database.Type)
	}
	switch c.Model.Provider {
	case "ollama", "openrouter", "gemini":
	default:
		return fmt.Errorf("invalid model.provider %q, must be ollama, openrouter or gemini", c.Model.Provider)
	}
	if c.Model.Provider != "ollama" && c.Model.APIKey == "" {
		return fmt.Errorf("model.api_key is required for provider %s", c.Model.Provider)
	}
	switch c.Memory.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid memory.backend %q, must be memory or redis", c.Memory.Backend)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be greater than 0")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return c.Log.Validate()
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ConnectionString returns DSN, or builds one from the individual fields when
// Host is set.
func (d DatabaseConfig) ConnectionString() string {
	if d.Host == "" {
		return d.DSN
	}
	switch d.Type {
	case "postgres":
		return stores.PostgresDSN(d.Host, d.User, d.Password, d.Name, d.Port)
	case "mysql":
		return stores.MySQLDSN(d.Host, d.User, d.Password, d.Name, d.Port)
	}
	return d.DSN
}

// StoreConfig converts to the stores package's connection settings.
func (d DatabaseConfig) StoreConfig() *stores.StoreConfig {
	return stores.NewStoreConfig(d.Type, d.ConnectionString()).
		WithOption("log_level", d.LogLevel).
		WithOption("max_open_conns", strconv.Itoa(d.MaxOpenConns)).
		WithOption("max_idle_conns", strconv.Itoa(d.MaxIdleConns)).
		WithOption("conn_max_lifetime", d.ConnMaxLifetime.String())
}

func (m MemoryConfig) RedisOptions() memory.RedisConfig {
	return memory.RedisConfig{
		Addr:     m.Redis.Addr,
		Password: m.Redis.Password,
		DB:       m.Redis.DB,
		Prefix:   m.Redis.Prefix,
		TTL:      m.Redis.TTL,
	}
}
