package apply

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mamaar/reshape/pkg/types"
)

// LockManager serializes file access across concurrent transactions. Locks
// are per absolute path and always acquired in lexical order, so two
// transactions touching overlapping file sets cannot deadlock: one of them
// queues behind the other on the first contended path.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]chan struct{})}
}

func (m *LockManager) lockFor(path string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.locks[path]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[path] = ch
	}
	return ch
}

// Acquire takes the locks for every path, waiting up to timeout in total.
// A transaction that cannot get a lock in time fails with lock_contention
// rather than proceeding; it never steals. The returned release function is
// safe to call once.
func (m *LockManager) Acquire(ctx context.Context, paths []string, timeout time.Duration) (func(), error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	// Duplicates would self-deadlock on the second acquire.
	sorted = dedupe(sorted)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var held []chan struct{}
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, path := range sorted {
		ch := m.lockFor(path)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-deadline.C:
			release()
			return nil, types.NewLockContention([]string{path}).
				WithDetail("waited", timeout.String())
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
