package speech

// queued wraps one pending utterance with scheduling metadata. The seq field
// provides FIFO ordering within the same priority band.
type queued struct {
	id       string
	text     string
	opts     Options
	priority Priority
	seq      uint64 // monotonic insertion order for FIFO tie-breaking
	started  bool
	startAt  int64 // unix nanos of engine start, for duration metrics
}

// utteranceHeap implements [container/heap.Interface] as a max-heap ordered
// by priority (descending), with FIFO tie-breaking on seq (ascending).
// Dequeue order is therefore exactly the stable band insertion the scheduler
// promises: a new utterance sorts immediately before the first entry with
// strictly lower priority.
type utteranceHeap []*queued

func (h utteranceHeap) Len() int { return len(h) }

// Less reports whether element i should be dequeued before element j.
// Higher priority wins; equal priority falls back to insertion order.
func (h utteranceHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h utteranceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push appends x to the heap. Called by [container/heap.Push]; callers must
// not invoke this directly.
func (h *utteranceHeap) Push(x any) {
	*h = append(*h, x.(*queued))
}

// Pop removes and returns the last element. Called by [container/heap.Pop];
// callers must not invoke this directly.
func (h *utteranceHeap) Pop() any {
	old := *h
	n := len(old)
	q := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return q
}
