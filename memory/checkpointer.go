package memory

import (
	"context"
	"sync"

	"github.com/Desarso/stockagent/models"
)

// Checkpointer is the backing map from thread id to message sequence.
type Checkpointer interface {
	Load(ctx context.Context, threadID string) ([]models.Message, error)
	Save(ctx context.Context, threadID string, msgs []models.Message) error
	Delete(ctx context.Context, threadID string) error
}

// InMemoryCheckpointer keeps thread state for the lifetime of the process.
type InMemoryCheckpointer struct {
	mu      sync.RWMutex
	threads map[string][]models.Message
}

func NewInMemoryCheckpointer() *InMemoryCheckpointer {
	return &InMemoryCheckpointer{threads: make(map[string][]models.Message)}
}

func (c *InMemoryCheckpointer) Load(_ context.Context, threadID string) ([]models.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneMessages(c.threads[threadID]), nil
}

func (c *InMemoryCheckpointer) Save(_ context.Context, threadID string, msgs []models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads[threadID] = cloneMessages(msgs)
	return nil
}

func (c *InMemoryCheckpointer) Delete(_ context.Context, threadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.threads, threadID)
	return nil
}

func cloneMessages(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return []models.Message{}
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}
