package memory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Desarso/stockagent/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(q, a string) []models.Message {
	return []models.Message{models.UserMessage(q), models.AssistantMessage(a)}
}

func TestThreadKey(t *testing.T) {
	assert.Equal(t, "conversation:12", ThreadKey(12, "5"))
	assert.Equal(t, "user:5", ThreadKey(0, "5"))
}

func TestGetContext_UnknownThreadIsEmpty(t *testing.T) {
	m := NewManager()
	msgs, err := m.GetContext(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAppendTurn(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	require.NoError(t, m.AppendTurn(ctx, "t1", turn("hola", "¡Hola!")...))
	require.NoError(t, m.AppendTurn(ctx, "t1", turn("¿stock?", "40")...))

	msgs, err := m.GetContext(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "¿stock?", msgs[2].Content)

	other, err := m.GetContext(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAppendTurn_RejectsTransientMessages(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	err := m.AppendTurn(ctx, "t1", models.UserMessage("hola"), models.ToolMessage(models.FunctionCall{ID: "1", Name: "x"}, "out"))
	assert.Error(t, err)
	err = m.AppendTurn(ctx, "t1", models.SystemMessage("hoy es lunes"))
	assert.Error(t, err)
	err = m.AppendTurn(ctx, "t1", models.Message{Role: models.RoleAssistant, ToolCalls: []models.FunctionCall{{Name: "x"}}})
	assert.Error(t, err)

	msgs, _ := m.GetContext(ctx, "t1")
	assert.Empty(t, msgs, "a rejected append commits nothing")
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	require.NoError(t, m.AppendTurn(ctx, "t1", turn("a", "b")...))

	msgs, _ := m.GetContext(ctx, "t1")
	msgs[0].Content = "mutated"

	again, _ := m.GetContext(ctx, "t1")
	assert.Equal(t, "a", again[0].Content)
}

func TestTrimWindow(t *testing.T) {
	m := NewManager(WithMaxMessages(5))
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, m.AppendTurn(ctx, "t", turn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))...))
	}

	msgs, _ := m.GetContext(ctx, "t")
	require.Len(t, msgs, 4, "window of 5 trimmed to start on a user message")
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "q2", msgs[0].Content)
}

func TestSeed(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	applied, err := m.Seed(ctx, "t", turn("q", "a"))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = m.Seed(ctx, "t", turn("other", "history"))
	require.NoError(t, err)
	assert.False(t, applied, "existing context wins")

	msgs, _ := m.GetContext(ctx, "t")
	assert.Equal(t, "q", msgs[0].Content)
}

func TestEvict(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	require.NoError(t, m.AppendTurn(ctx, "t", turn("q", "a")...))
	require.NoError(t, m.Evict(ctx, "t"))

	msgs, _ := m.GetContext(ctx, "t")
	assert.Empty(t, msgs)
}

func TestEvictIdle(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.AppendTurn(ctx, "old", turn("q", "a")...))
	require.NoError(t, m.AppendTurn(ctx, "busy", turn("q", "a")...))
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, m.AppendTurn(ctx, "fresh", turn("q", "a")...))

	unlock := m.Lock("busy")
	defer unlock()

	assert.Equal(t, 1, m.EvictIdle(ctx, time.Hour))

	old, _ := m.cp.Load(ctx, "old")
	assert.Empty(t, old)
	busy, _ := m.cp.Load(ctx, "busy")
	assert.Len(t, busy, 2)
	fresh, _ := m.cp.Load(ctx, "fresh")
	assert.Len(t, fresh, 2)
}

func TestLock_SerialisesReadModifyAppend(t *testing.T) {
	m := NewManager(WithMaxMessages(1000))
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := m.Lock("shared")
			defer unlock()

			before, err := m.GetContext(ctx, "shared")
			assert.NoError(t, err)
			time.Sleep(time.Millisecond)
			assert.NoError(t, m.AppendTurn(ctx, "shared",
				models.UserMessage(fmt.Sprintf("q%d-%d", i, len(before))),
				models.AssistantMessage(fmt.Sprintf("a%d", i))))
		}(i)
	}
	wg.Wait()

	msgs, _ := m.GetContext(ctx, "shared")
	require.Len(t, msgs, writers*2)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, models.RoleUser, msgs[i].Role)
		assert.Equal(t, models.RoleAssistant, msgs[i+1].Role)
		// each writer saw exactly the turns committed before it
		assert.Contains(t, msgs[i].Content, fmt.Sprintf("-%d", i))
	}
}

func TestLock_ReleasesEntries(t *testing.T) {
	m := NewManager()
	unlock := m.Lock("t")
	unlock()
	unlock() // idempotent

	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	assert.Empty(t, m.locks)
}

func TestJanitor(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	clock := time.Now()
	m.now = func() time.Time { return clock }
	require.NoError(t, m.AppendTurn(ctx, "t", turn("q", "a")...))
	clock = clock.Add(3 * time.Hour)

	_, err := NewJanitor(m, "not a cron schedule", time.Hour, nil)
	assert.Error(t, err)
	_, err = NewJanitor(m, "*/5 * * * *", 0, nil)
	assert.Error(t, err)

	j, err := NewJanitor(m, "*/5 * * * *", time.Hour, nil)
	require.NoError(t, err)
	j.Sweep()

	msgs, _ := m.cp.Load(ctx, "t")
	assert.Empty(t, msgs)

	j.Start()
	j.Stop()
}

func TestRedisCheckpointer(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	cp := NewRedisCheckpointerWithClient(client, fmt.Sprintf("stockagent:test:%d:", time.Now().UnixNano()), time.Minute)
	m := NewManager(WithCheckpointer(cp))

	require.NoError(t, m.AppendTurn(ctx, "t", turn("q", "a")...))
	msgs, err := m.GetContext(ctx, "t")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	require.NoError(t, m.Evict(ctx, "t"))
	msgs, err = m.GetContext(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
