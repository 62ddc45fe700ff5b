// Package app wires configuration into a running agent: database, inventory
// tools, memory, model adapter, chat service and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Desarso/stockagent"
	"github.com/Desarso/stockagent/config"
	"github.com/Desarso/stockagent/inventory"
	"github.com/Desarso/stockagent/inventory_tools"
	"github.com/Desarso/stockagent/memory"
	"github.com/Desarso/stockagent/models/gemini"
	"github.com/Desarso/stockagent/models/ollama"
	"github.com/Desarso/stockagent/models/openrouter"
	"github.com/Desarso/stockagent/server"
	"github.com/Desarso/stockagent/stores"
	"go.uber.org/zap"
)

type App struct {
	Config  *config.Config
	Agent   *stockagent.Agent
	Chat    *stockagent.ChatService
	Store   *stores.GormStore
	Server  *server.Server
	janitor *memory.Janitor
	closers []io.Closer
	logger  *zap.Logger
}

// New builds every component. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, logger: log}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// openDatabase is swapped in tests.
var openDatabase = stores.OpenDatabase

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	db, err := openDatabase(cfg.Database.StoreConfig())
	if err != nil {
		return err
	}
	store, err := stores.NewGormStore(db)
	if err != nil {
		// not yet owned by a closer
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	a.Store = store
	a.closers = append(a.closers, store)

	repo, err := inventory.NewGormRepository(db)
	if err != nil {
		return err
	}
	if cfg.Database.Migrate {
		if err := repo.Migrate(); err != nil {
			return err
		}
	}
	tools, err := inventory_tools.NewRegistry(repo, a.logger)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	mem, err := a.buildMemory(ctx)
	if err != nil {
		return err
	}

	model, err := NewModel(ctx, cfg.Model)
	if err != nil {
		return err
	}

	agentCfg := stockagent.NewAgentConfig().
		WithMaxIterations(cfg.Agent.MaxIterations).
		WithModelTimeout(cfg.Agent.ModelTimeout).
		WithToolTimeout(cfg.Agent.ToolTimeout).
		WithTimezone(cfg.Agent.Timezone).
		WithReadOnlyRoles(cfg.Agent.ReadOnlyRoles...).
		WithLogger(a.logger)
	a.Agent = stockagent.Create_Agent(model, tools, mem, agentCfg)
	a.Chat = stockagent.NewChatService(a.Agent, store, repo)
	a.Server = server.New(a.Chat, store, cfg.Server.AllowOrigins, a.logger)

	if cfg.Memory.IdleTTL > 0 && cfg.Memory.SweepSchedule != "" {
		a.janitor, err = memory.NewJanitor(mem, cfg.Memory.SweepSchedule, cfg.Memory.IdleTTL, a.logger)
		if err != nil {
			return err
		}
		a.janitor.Start()
	}
	return nil
}

func (a *App) buildMemory(ctx context.Context) (*memory.Manager, error) {
	opts := []memory.Option{
		memory.WithMaxMessages(a.Config.Memory.MaxMessages),
		memory.WithLogger(a.logger),
	}
	if a.Config.Memory.Backend == "redis" {
		cp, err := memory.NewRedisCheckpointer(ctx, a.Config.Memory.RedisOptions())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cp)
		opts = append(opts, memory.WithCheckpointer(cp))
	}
	return memory.NewManager(opts...), nil
}

// NewModel returns the adapter selected by cfg.Provider.
func NewModel(ctx context.Context, cfg config.ModelConfig) (stockagent.Model, error) {
	switch cfg.Provider {
	case "ollama":
		m, err := ollama.New(cfg.BaseURL, cfg.APIKey, cfg.Name)
		if err != nil {
			return nil, err
		}
		m.Temperature = cfg.Temperature
		return m, nil
	case "openrouter":
		m := openrouter.New(cfg.BaseURL, cfg.APIKey, cfg.Name, cfg.SiteURL, cfg.SiteName)
		m.Temperature = float32(cfg.Temperature)
		return m, nil
	case "gemini":
		m, err := gemini.New(ctx, cfg.APIKey, cfg.Name)
		if err != nil {
			return nil, err
		}
		m.Temperature = float32(cfg.Temperature)
		return m, nil
	}
	return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
}

// Close stops the janitor and releases connections in reverse order.
func (a *App) Close() error {
	if a.janitor != nil {
		a.janitor.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
