// Package queue serializes each user's requests to the single-concurrency
// completion backend. A registry of per-user FIFO queues gates worker
// ownership; a detached worker drains one user's queue and releases the gate
// on every exit path.
package queue

import "sync"

// Registry holds the per-user queues and the processing flags. All state
// transitions happen under one mutex so the enqueue-and-claim check is
// atomic.
type Registry struct {
	mu     sync.Mutex
	states map[int64]*userState
}

type userState struct {
	pending    []Request
	processing bool
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[int64]*userState)}
}

// Enqueue appends req to the user's queue. owner reports whether the caller
// claimed the processing gate and must start a worker; among concurrent
// enqueuers for an idle user exactly one observes owner=true. position is
// the 1-based place of req in the pending queue.
func (r *Registry) Enqueue(userID int64, req Request) (position int, owner bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[userID]
	if !ok {
		st = &userState{}
		r.states[userID] = st
	}
	st.pending = append(st.pending, req)
	if !st.processing {
		st.processing = true
		owner = true
	}
	return len(st.pending), owner
}

// Next pops the head of the user's queue. When the queue is empty it
// releases the processing gate in the same critical section, so an enqueue
// can never land between the emptiness check and the release.
func (r *Registry) Next(userID int64) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[userID]
	if !ok {
		return Request{}, false
	}
	if len(st.pending) == 0 {
		st.processing = false
		delete(r.states, userID)
		return Request{}, false
	}
	req := st.pending[0]
	st.pending = st.pending[1:]
	return req, true
}

// Release clears the processing gate unconditionally, so it must only be
// called by a worker that still owns the gate. Normal drains release through
// Next and never call this; it is the safety net for a worker that dies
// mid-item.
func (r *Registry) Release(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[userID]
	if !ok {
		return
	}
	st.processing = false
	if len(st.pending) == 0 {
		delete(r.states, userID)
	}
}

// IsProcessing reports whether a worker currently owns the user's queue.
func (r *Registry) IsProcessing(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[userID]
	return ok && st.processing
}

// Depth returns the number of requests waiting in the user's queue, not
// counting the one a worker may be processing right now.
func (r *Registry) Depth(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[userID]
	if !ok {
		return 0
	}
	return len(st.pending)
}
