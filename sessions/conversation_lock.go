package sessions

import "sync"

// conversationLocks serialises work on one conversation so its stored
// transcript is written as user, ai, user, ai even under concurrent sends.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[uint]*conversationLock
}

type conversationLock struct {
	mu   sync.Mutex
	refs int
}

func (c *conversationLocks) lock(chatID uint) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[uint]*conversationLock)
	}
	l, ok := c.locks[chatID]
	if !ok {
		l = &conversationLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			c.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(c.locks, chatID)
			}
			c.mu.Unlock()
		})
	}
}
