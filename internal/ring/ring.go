// Package ring implements a fixed-capacity, lock-free, multi-producer
// multi-consumer queue (Dmitry Vyukov's bounded MPMC algorithm) for
// fixed-size records. It is the real-time-safe transport between the
// host's audio/main threads and the queue-draining worker: TryPush and
// Pop never allocate, never block, and never take an OS lock.
package ring

import "sync/atomic"

type cell[T any] struct {
	seq     atomic.Uint64
	payload T
}

// Ring is a bounded MPMC queue with power-of-two capacity N.
type Ring[T any] struct {
	mask    uint64
	cells   []cell[T]
	dropped atomic.Uint64

	// head/tail live on their own cache lines to avoid false sharing
	// between the many producers advancing head and the single
	// consumer advancing tail.
	_    [56]byte
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte
}

// New builds a Ring with the given capacity, which must be a power of
// two of at least 2. A non-conforming capacity is rounded up, matching
// spec.md's compile-time constraint as a runtime guard since Go has no
// template-time assertion for this.
func New[T any](capacity int) *Ring[T] {
	n := nextPow2(capacity)
	cells := make([]cell[T], n)
	for i := range cells {
		cells[i].seq.Store(uint64(i))
	}
	return &Ring[T]{
		mask:  uint64(n - 1),
		cells: cells,
	}
}

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the ring's fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.cells)
}

// TryPush attempts to enqueue v without overwriting. It returns false
// if the ring is full. Safe to call from any number of concurrent
// producers, including the real-time audio thread.
func (r *Ring[T]) TryPush(v T) bool {
	for {
		head := r.head.Load()
		c := &r.cells[head&r.mask]
		seq := c.seq.Load()

		diff := int64(seq) - int64(head)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(head, head+1) {
				c.payload = v
				c.seq.Store(head + 1)
				return true
			}
		case diff < 0:
			return false // full
		default:
			// another producer raced ahead; retry
		}
	}
}

// Push is the overwriting producer variant: if the ring is full it
// drops the oldest element (one Pop) and retries once. Used on paths
// that prefer dropping history to blocking or dropping the newest
// event. Returns false only if the retry also fails to enqueue, which
// can only happen under pathological concurrent contention.
func (r *Ring[T]) Push(v T) bool {
	if r.TryPush(v) {
		return true
	}
	var discard T
	if r.Pop(&discard) {
		r.dropped.Add(1)
	}
	return r.TryPush(v)
}

// Pop dequeues the oldest element into out. Returns false if the ring
// is empty. Safe to call from any number of concurrent consumers,
// though this module's worker (§4.8) uses exactly one.
func (r *Ring[T]) Pop(out *T) bool {
	for {
		tail := r.tail.Load()
		c := &r.cells[tail&r.mask]
		seq := c.seq.Load()

		diff := int64(seq) - int64(tail+1)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(tail, tail+1) {
				*out = c.payload
				var zero T
				c.payload = zero
				c.seq.Store(tail + uint64(len(r.cells)))
				return true
			}
		case diff < 0:
			return false // empty
		default:
			// another consumer raced ahead; retry
		}
	}
}

// Size is a best-effort snapshot of the number of queued elements. It
// may be stale the instant it is read under concurrent push/pop.
func (r *Ring[T]) Size() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Dropped returns the best-effort count of elements discarded by the
// overwriting Push path. Supplements spec.md with a diagnostics counter
// (see SPEC_FULL.md §6); incrementing it is itself allocation-free and
// lock-free so it carries no real-time cost beyond the Push it rides on.
func (r *Ring[T]) Dropped() uint64 {
	return r.dropped.Load()
}
