package host

import (
	"fmt"
	"sync"

	"github.com/wippyai/worker-host/worker"
)

// Entry is one live worker: its thread-join capability and its handle. The
// table owns entries exclusively; no code outside the table's removal path
// may join a worker thread.
type Entry struct {
	Thread *worker.Thread
	Handle *worker.Handle
}

// Table maps worker ids to entries for one host session. Identifiers are
// allocated by a strictly increasing counter and never reused, so an id
// that has been reclaimed stays permanently invalid.
type Table struct {
	mu      sync.Mutex
	nextID  uint32
	workers map[uint32]Entry
}

// NewTable creates an empty worker table.
func NewTable() *Table {
	return &Table{workers: make(map[uint32]Entry)}
}

// AllocateID returns the next unused worker id. It never blocks.
func (t *Table) AllocateID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	return id
}

// Insert stores an entry under id. A duplicate id is a programming error in
// the dispatch layer, not a user-facing condition, so it panics.
func (t *Table) Insert(id uint32, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.workers[id]; exists {
		panic(fmt.Sprintf("worker id %d already present in table", id))
	}
	t.workers[id] = e
}

// Get returns the handle for id without removing the entry.
func (t *Table) Get(id uint32) (*worker.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.workers[id]
	if !ok {
		return nil, false
	}
	return e.Handle, true
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.workers)
}

// IDs returns the ids of all live entries, in no particular order.
func (t *Table) IDs() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uint32, 0, len(t.workers))
	for id := range t.workers {
		ids = append(ids, id)
	}
	return ids
}

// RemoveAndJoin removes the entry for id, closes the handle's send side,
// and blocks until the worker thread has fully exited. It returns the
// removed handle for final bookkeeping, or (nil, false) if the entry had
// already vanished. Concurrent reclaim and explicit termination race, and
// exactly one caller performs the join.
//
// The blocking join happens outside the table lock so unrelated worker
// management is never stalled. A panic that escaped the worker's run loop
// is re-raised here: it is a bug in the run loop, never swallowed.
func (t *Table) RemoveAndJoin(id uint32) (*worker.Handle, bool) {
	t.mu.Lock()
	e, ok := t.workers[id]
	if ok {
		delete(t.workers, id)
	}
	t.mu.Unlock()

	if !ok {
		return nil, false
	}

	e.Handle.CloseMessages()
	if err := e.Thread.Join(); err != nil {
		panic(err)
	}
	return e.Handle, true
}
