// Package memory keeps the rolling message context each thread shows the model.
// It is a cache: the conversation store's transcript is the system of record.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Desarso/stockagent/models"
	"go.uber.org/zap"
)

const DefaultMaxMessages = 40

// ThreadKey derives the memory key. Memory follows durable conversations; the
// user-scoped key is only used when no conversation exists.
func ThreadKey(conversationID uint, userID string) string {
	if conversationID != 0 {
		return "conversation:" + strconv.FormatUint(uint64(conversationID), 10)
	}
	return "user:" + userID
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Manager serialises turns per thread and commits resolved turns.
type Manager struct {
	cp          Checkpointer
	maxMessages int
	logger      *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*threadLock

	// dataMu makes load-modify-save on the checkpointer atomic.
	dataMu   sync.Mutex
	lastUsed map[string]time.Time
	now      func() time.Time
}

type Option func(*Manager)

func WithCheckpointer(cp Checkpointer) Option {
	return func(m *Manager) { m.cp = cp }
}

func WithMaxMessages(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxMessages = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cp:          NewInMemoryCheckpointer(),
		maxMessages: DefaultMaxMessages,
		logger:      zap.NewNop(),
		locks:       make(map[string]*threadLock),
		lastUsed:    make(map[string]time.Time),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("memory")
	return m
}

// Lock acquires the thread's mutex and returns its release func. Hold it across
// GetContext, the model loop and AppendTurn.
func (m *Manager) Lock(threadID string) func() {
	m.locksMu.Lock()
	l, ok := m.locks[threadID]
	if !ok {
		l = &threadLock{}
		m.locks[threadID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, threadID)
			}
			m.locksMu.Unlock()
		})
	}
}

// GetContext returns the thread's message sequence, empty for unknown threads.
func (m *Manager) GetContext(ctx context.Context, threadID string) ([]models.Message, error) {
	msgs, err := m.cp.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	m.touch(threadID)
	return msgs, nil
}

// AppendTurn atomically appends resolved user/assistant messages. Tool and system
// messages belong to a single loop execution and are rejected.
func (m *Manager) AppendTurn(ctx context.Context, threadID string, msgs ...models.Message) error {
	for _, msg := range msgs {
		if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
			return fmt.Errorf("cannot commit %s message to thread memory", msg.Role)
		}
		if len(msg.ToolCalls) > 0 {
			return fmt.Errorf("cannot commit an unresolved tool call to thread memory")
		}
	}

	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	current, err := m.cp.Load(ctx, threadID)
	if err != nil {
		return err
	}
	next := trimWindow(append(current, msgs...), m.maxMessages)
	if err := m.cp.Save(ctx, threadID, next); err != nil {
		return err
	}
	m.lastUsed[threadID] = m.now()
	return nil
}

// Seed hydrates an empty thread from a durable transcript. It reports whether the
// history was applied; threads that already hold context are left untouched.
func (m *Manager) Seed(ctx context.Context, threadID string, history []models.Message) (bool, error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	current, err := m.cp.Load(ctx, threadID)
	if err != nil {
		return false, err
	}
	if len(current) > 0 || len(history) == 0 {
		return false, nil
	}
	if err := m.cp.Save(ctx, threadID, trimWindow(history, m.maxMessages)); err != nil {
		return false, err
	}
	m.lastUsed[threadID] = m.now()
	m.logger.Debug("thread hydrated", zap.String("thread_id", threadID), zap.Int("messages", len(history)))
	return true, nil
}

// Evict drops a thread's cached context.
func (m *Manager) Evict(ctx context.Context, threadID string) error {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	delete(m.lastUsed, threadID)
	return m.cp.Delete(ctx, threadID)
}

// EvictIdle drops threads unused for longer than maxIdle and not currently locked.
func (m *Manager) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	evicted := 0
	for threadID, last := range m.lastUsed {
		if last.After(cutoff) || m.isLocked(threadID) {
			continue
		}
		if err := m.cp.Delete(ctx, threadID); err != nil {
			m.logger.Warn("failed to evict thread", zap.String("thread_id", threadID), zap.Error(err))
			continue
		}
		delete(m.lastUsed, threadID)
		evicted++
	}
	return evicted
}

func (m *Manager) isLocked(threadID string) bool {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	_, ok := m.locks[threadID]
	return ok
}

func (m *Manager) touch(threadID string) {
	m.dataMu.Lock()
	m.lastUsed[threadID] = m.now()
	m.dataMu.Unlock()
}

// trimWindow keeps at most max messages and never starts on an assistant message.
func trimWindow(msgs []models.Message, max int) []models.Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	msgs = msgs[len(msgs)-max:]
	for i, msg := range msgs {
		if msg.Role == models.RoleUser {
			return msgs[i:]
		}
	}
	return []models.Message{}
}
