package services

import "sync"

// accountLocks hands out one mutex per account id so balance mutations on
// the same account are serialized while different accounts proceed in
// parallel. Locks are never reclaimed; the set of accounts a single
// process touches is small enough that this does not matter.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) acquire(id string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
