package usecase

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// leadLocks serializes conversion attempts per lead. Two concurrent requests
// for the same lead must not both pass the "not yet converted" check and
// create duplicate remote resources; the loser waits and then fails fast
// with ALREADY_CONVERTED.
type leadLocks struct {
	locks *xsync.MapOf[string, *leadLock]
}

type leadLock struct {
	mu      sync.Mutex
	waiters int
}

func newLeadLocks() *leadLocks {
	return &leadLocks{locks: xsync.NewMapOf[string, *leadLock]()}
}

// Acquire blocks until the per-lead lock is held and returns the release
// function. Each entry carries a waiter count, maintained under the map's
// per-key serialization; release drops the entry once nobody is waiting, so
// the map only ever holds leads with a conversion in flight.
func (l *leadLocks) Acquire(leadID string) func() {
	entry, _ := l.locks.Compute(leadID, func(old *leadLock, loaded bool) (*leadLock, bool) {
		if !loaded {
			old = &leadLock{}
		}
		old.waiters++
		return old, false
	})
	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.locks.Compute(leadID, func(old *leadLock, loaded bool) (*leadLock, bool) {
			old.waiters--
			return old, old.waiters == 0
		})
	}
}

func (l *leadLocks) size() int {
	return l.locks.Size()
}
