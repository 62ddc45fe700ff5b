package stockagent

import (
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
)

const (
	DefaultMaxIterations = 6
	DefaultModelTimeout  = 60 * time.Second
	DefaultToolTimeout   = 15 * time.Second
	DefaultTimezone      = "America/Mexico_City"
)

// AgentConfig holds the reasoning loop's limits and collaborators.
type AgentConfig struct {
	MaxIterations int
	ModelTimeout  time.Duration
	ToolTimeout   time.Duration
	Location      *time.Location
	// ReadOnlyRoles may read through tools but not run mutating ones.
	ReadOnlyRoles []string
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewAgentConfig creates a configuration with default values
func NewAgentConfig() *AgentConfig {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.Local
	}
	return &AgentConfig{
		MaxIterations: DefaultMaxIterations,
		ModelTimeout:  DefaultModelTimeout,
		ToolTimeout:   DefaultToolTimeout,
		Location:      loc,
		Logger:        zap.NewNop(),
		Clock:         time.Now,
	}
}

// WithMaxIterations sets the iteration cap; non-positive values keep the current cap.
func (c *AgentConfig) WithMaxIterations(n int) *AgentConfig {
	if n > 0 {
		c.MaxIterations = n
	}
	return c
}

func (c *AgentConfig) WithModelTimeout(d time.Duration) *AgentConfig {
	if d > 0 {
		c.ModelTimeout = d
	}
	return c
}

func (c *AgentConfig) WithToolTimeout(d time.Duration) *AgentConfig {
	if d > 0 {
		c.ToolTimeout = d
	}
	return c
}

// WithTimezone sets the location used for the date in the system prompt.
func (c *AgentConfig) WithTimezone(name string) *AgentConfig {
	if loc, err := time.LoadLocation(name); err == nil {
		c.Location = loc
	}
	return c
}

func (c *AgentConfig) WithReadOnlyRoles(roles ...string) *AgentConfig {
	c.ReadOnlyRoles = roles
	return c
}

func (c *AgentConfig) WithLogger(logger *zap.Logger) *AgentConfig {
	if logger != nil {
		c.Logger = logger
	}
	return c
}

func (c *AgentConfig) WithClock(clock func() time.Time) *AgentConfig {
	if clock != nil {
		c.Clock = clock
	}
	return c
}
