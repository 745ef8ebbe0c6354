package negotiation

import (
	"context"
	"sync"
)

// Locker serialises client-initiated mutations per load id. Acquire returns
// ErrLoadBusy immediately when the load is already held; it never queues.
type Locker interface {
	Acquire(ctx context.Context, loadID string) (release func(), err error)
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

func (l *MemoryLocker) Acquire(_ context.Context, loadID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[loadID] {
		return nil, ErrLoadBusy
	}
	l.held[loadID] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, loadID)
			l.mu.Unlock()
		})
	}, nil
}
