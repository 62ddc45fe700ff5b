package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically evicts idle threads from the memory cache.
type Janitor struct {
	cron    *cron.Cron
	manager *Manager
	maxIdle time.Duration
	logger  *zap.Logger
}

// NewJanitor schedules EvictIdle on a standard five-field cron schedule.
func NewJanitor(manager *Manager, schedule string, maxIdle time.Duration, logger *zap.Logger) (*Janitor, error) {
	if maxIdle <= 0 {
		return nil, fmt.Errorf("max idle must be positive, got %s", maxIdle)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Janitor{
		cron:    cron.New(),
		manager: manager,
		maxIdle: maxIdle,
		logger:  logger.Named("memory_janitor"),
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("invalid eviction schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop stops the scheduler and waits for a running sweep.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if n := j.manager.EvictIdle(ctx, j.maxIdle); n > 0 {
		j.logger.Info("evicted idle threads", zap.Int("count", n))
	}
}
