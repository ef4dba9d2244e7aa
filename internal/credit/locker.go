package credit

import (
	"sync"

	"github.com/google/uuid"
)

// accountLocker serializes mutating operations per credit id. Charges and
// payments are read-modify-write sequences over the stored consumption
// amount; without exclusion two concurrent charges can both read the same
// amount and the second write clobbers the first. Locking by id keeps
// operations on different accounts fully concurrent.
type accountLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocker() *accountLocker {
	return &accountLocker{locks: make(map[uuid.UUID]*accountLock)}
}

// Lock acquires the exclusive region for the given credit id and returns
// the matching unlock function.
func (l *accountLocker) Lock(id uuid.UUID) func() {
	l.mu.Lock()

	entry, ok := l.locks[id]
	if !ok {
		entry = &accountLock{}
		l.locks[id] = entry
	}

	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()

		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}

		l.mu.Unlock()
	}
}
