package dedupe

import (
	"context"
	"sync"
	"time"

	"gitlab.com/nevasik7/alerting/logger"
)

var _ Deduper = (*MemoryDedupe)(nil)

type MemoryDedupe struct {
	log     logger.Logger
	ttl     time.Duration
	mu      sync.Mutex
	items   map[string]int64 // id -> expiry, unix nano
	stopCh  chan struct{}
	stopped bool
}

// NewInMemoryDedupe is single-instance only. janitorEvery=0 disables the
// expired-id sweeper.
func NewInMemoryDedupe(log logger.Logger, ttl, janitorEvery time.Duration) *MemoryDedupe {
	m := &MemoryDedupe{
		log:    log,
		ttl:    ttl,
		items:  make(map[string]int64, 1024),
		stopCh: make(chan struct{}),
	}

	if janitorEvery > 0 {
		go m.janitor(janitorEvery)
	}

	return m
}

func (m *MemoryDedupe) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now().UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.items[id]; ok && exp > now {
		return true, nil
	}

	m.items[id] = now + m.ttl.Nanoseconds()
	return false, nil
}

func (m *MemoryDedupe) Health(context.Context) error { return nil }

func (m *MemoryDedupe) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *MemoryDedupe) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := time.Now().UnixNano()
			removed := 0
			m.mu.Lock()
			for k, exp := range m.items {
				if exp <= now {
					delete(m.items, k)
					removed++
				}
			}
			m.mu.Unlock()
			if removed > 0 {
				m.log.Debugf("Dedupe janitor removed %d expired ids", removed)
			}
		}
	}
}

// Close stops the janitor if running.
func (m *MemoryDedupe) Close() {
	m.mu.Lock()
	if !m.stopped {
		close(m.stopCh)
		m.stopped = true
	}
	m.mu.Unlock()
}
