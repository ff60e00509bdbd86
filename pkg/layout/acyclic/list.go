package acyclic

// fasEntry tracks the remaining weighted in/out degree of a node while the
// greedy heuristic drains the graph. prev and next link it into its bucket.
type fasEntry struct {
	v       string
	in, out int

	prev, next *fasEntry
}

// bucket is a FIFO doubly linked list with a sentinel. Enqueue pushes at the
// front, dequeue pops from the back; an entry belongs to at most one bucket.
type bucket struct {
	sentinel fasEntry
}

func newBucket() *bucket {
	b := &bucket{}
	b.sentinel.prev = &b.sentinel
	b.sentinel.next = &b.sentinel
	return b
}

func (b *bucket) enqueue(e *fasEntry) {
	if e.prev != nil && e.next != nil {
		unlink(e)
	}
	e.next = b.sentinel.next
	b.sentinel.next.prev = e
	b.sentinel.next = e
	e.prev = &b.sentinel
}

func (b *bucket) dequeue() *fasEntry {
	e := b.sentinel.prev
	if e == &b.sentinel {
		return nil
	}
	unlink(e)
	return e
}

func unlink(e *fasEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}
