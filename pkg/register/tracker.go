package register

import "sync"

// Tracker records in-flight submissions by form id. It lets a form instance that
// spans several HTTP requests refuse overlapping submits.
type Tracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		inflight: make(map[string]struct{}),
	}
}

// Begin marks id as in flight. It returns false if id is already in flight;
// otherwise the returned release func must be called once the submission resolves.
func (t *Tracker) Begin(id string) (release func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.inflight[id]; busy {
		return nil, false
	}
	t.inflight[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.inflight, id)
			t.mu.Unlock()
		})
	}, true
}
