package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bloodbridge/internal/domain"
)

type memoryEntry struct {
	token   uint64
	expires time.Time
}

// MemoryLocker implements domain.RequestLocker inside one process. It is used
// when no Redis is configured.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	next  uint64
	clock func() time.Time
}

// NewMemoryLocker returns an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryEntry), clock: time.Now}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: lock ttl must be positive", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, domain.ErrLocked
	}
	l.next++
	token := l.next
	l.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.token == token {
			delete(l.held, key)
		}
		return nil
	}
	return release, nil
}
