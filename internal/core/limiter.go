package core

import "sync"

// inFlight tracks monitors with a check in progress so that checks for the
// same monitor never overlap.
type inFlight struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{ids: make(map[int64]struct{})}
}

// acquire marks id busy and reports whether it was free.
func (f *inFlight) acquire(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.ids[id]; busy {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *inFlight) release(id int64) {
	f.mu.Lock()
	delete(f.ids, id)
	f.mu.Unlock()
}

func (f *inFlight) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}
