package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "nemotron-3-nano:30b-cloud", cfg.Model.Name)
	assert.Equal(t, 6, cfg.Agent.MaxIterations)
	assert.Equal(t, 15*time.Second, cfg.Agent.ToolTimeout)
	assert.Equal(t, 40, cfg.Memory.MaxMessages)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("PORT", "8081")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openrouter", cfg.Model.Provider)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  type: mysql
  host: db.local
  port: 3306
  user: inv
  password: secret
  name: inventario
memory:
  backend: redis
  redis:
    addr: cache:6379
agent:
  read_only_roles: [consulta]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "inv:secret@tcp(db.local:3306)/inventario?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.ConnectionString())
	assert.Equal(t, "cache:6379", cfg.Memory.RedisOptions().Addr)
	assert.Equal(t, []string{"consulta"}, cfg.Agent.ReadOnlyRoles)
	assert.Equal(t, "mysql", cfg.Database.StoreConfig().Type)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "database type", mutate: func(c *Config) { c.Database.Type = "oracle" }},
		{name: "provider", mutate: func(c *Config) { c.Model.Provider = "bard" }},
		{name: "gemini without key", mutate: func(c *Config) { c.Model.Provider = "gemini"; c.Model.APIKey = "" }},
		{name: "memory backend", mutate: func(c *Config) { c.Memory.Backend = "disk" }},
		{name: "iterations", mutate: func(c *Config) { c.Agent.MaxIterations = 0 }},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
