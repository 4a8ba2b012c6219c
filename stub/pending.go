package stub

import (
	"sort"
	"sync"
)

type pendingQueue []int64

func (p pendingQueue) Len() int {
	return len(p)
}

// Ids are allocated in issue order, so the lowest id is the oldest call.
func (p pendingQueue) Less(i, j int) bool {
	return p[i] < p[j]
}

func (p pendingQueue) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func pendingOldest(pending map[int64]*Call, num int) pendingQueue {
	if num > len(pending) {
		num = len(pending)
	}
	queue := make(pendingQueue, 0, len(pending))
	for id := range pending {
		queue = append(queue, id)
	}
	sort.Sort(queue)
	return queue[:num]
}

// pendingTable maps request ids to the calls waiting for their reply.
type pendingTable struct {
	mu     sync.Mutex
	calls  map[int64]*Call
	closed bool
}

// add inserts a call. If the table already holds limit calls, the discard
// oldest are evicted first. It returns the evicted calls, which the caller must resolve
// outside of the lock, and false if the table is closed.
func (t *pendingTable) add(c *Call, limit, discard int) (evicted []*Call, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, false
	}
	if t.calls == nil {
		t.calls = map[int64]*Call{}
	}
	if limit > 0 && len(t.calls) >= limit && discard > 0 {
		for _, id := range pendingOldest(t.calls, discard) {
			evicted = append(evicted, t.calls[id])
			delete(t.calls, id)
		}
	}
	t.calls[c.ID] = c
	return evicted, true
}

// take removes and returns the call waiting on id.
func (t *pendingTable) take(id int64) (*Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	return c, ok
}

// close empties the table and refuses further adds.
func (t *pendingTable) close() []*Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	calls := make([]*Call, 0, len(t.calls))
	for _, c := range t.calls {
		calls = append(calls, c)
	}
	t.calls = nil
	return calls
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
