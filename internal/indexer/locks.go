package indexer

import "sync"

// documentLocks serializes ingestions of the same document id within one
// process. Entries are dropped once no caller holds or waits on them.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (d *documentLocks) lock(id string) func() {
	d.mu.Lock()
	if d.locks == nil {
		d.locks = make(map[string]*documentLock)
	}
	l, ok := d.locks[id]
	if !ok {
		l = &documentLock{}
		d.locks[id] = l
	}
	l.refs++
	d.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, id)
		}
		d.mu.Unlock()
	}
}

func (d *documentLocks) held() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
