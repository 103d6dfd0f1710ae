// Package queue implements an intrusive, lock-free, multi-producer
// multi-consumer FIFO queue.
//
// The algorithm is Michael & Scott's lock-free queue with one twist taken
// from the reference implementation this package ports: rather than giving
// every consumer a full CAS loop over the head pointer on every pop, the
// head is guarded by a single bit lock, and a consumer that loses the race
// to acquire it backs off adaptively (see package pause) instead of
// retrying immediately. Producers never take the lock; a push only ever
// touches the tail with a single atomic exchange, plus one conditional
// store to link the new node in.
//
// The reference implementation packs that bit lock into the low bit of
// the head pointer itself. Go's garbage collector requires pointers it
// manages to be dereferenceable at all times, so this port keeps the lock
// in its own atomic.Bool next to the head pointer instead, exactly as
// spec.md's design notes sanction. The head, the tail and the per-node next
// pointer are atomic.Pointers, which buys the acquire and release semantics the original hand-rolled with explicit memory_order
// arguments for free.
package queue

import (
	"runtime"
	"sync/atomic"

	"github.com/orizon-lang/orizon-containers/pause"
)

// Node is the intrusive link a value embeds to become storable in a Queue.
type Node[V any] struct {
	next atomic.Pointer[V]
}

func (n *Node[V]) link() *Node[V] { return n }

// Entry is satisfied by *V when V embeds Node[V].
type Entry[V any] interface {
	*V
	link() *Node[V]
}

// Stamper is an optional interface a queued value may implement to record
// the order in which it was popped. If a value implements Stamper, Pop
// calls StampPop with a monotonically increasing counter before returning it.
// This is the Go rendition of the reference implementation's
// compile-time-only verification build: rather than a build tag that
// changes the node layout, it is an ordinary optional interface checked
// once per pop, used by this module's own tests to reconstruct per-
// producer pop order under contention.
type Stamper interface {
	StampPop(seq uint64)
}

// Queue is an intrusive lock-free MPMC FIFO. The zero value is not usable;
// construct one with New.
//
// Queue is safe for concurrent use by any number of producers and
// consumers.
type Queue[V any, PV Entry[V]] struct {
	head       atomic.Pointer[V]
	tail       atomic.Pointer[V]
	headLocked atomic.Bool
	size       atomic.Int64
	popSeq     atomic.Uint64
	backoff    *pause.Backoff
}

// New returns an empty Queue.
func New[V any, PV Entry[V]]() *Queue[V, PV] {
	return &Queue[V, PV]{backoff: pause.New()}
}

func (q *Queue[V, PV]) link(v *V) *Node[V] {
	return PV(v).link()
}

// Push appends value to the tail of the queue. Push never blocks and never
// fails: it is the caller's responsibility to have allocated value. Pushing
// a nil value is a no-op.
func (q *Queue[V, PV]) Push(value *V) {
	if value == nil {
		return
	}

	n := q.link(value)
	n.next.Store(nil)

	prev := q.tail.Swap(value)
	if prev == nil {
		q.head.Store(value)
	} else {
		q.link(prev).next.Store(value)
	}
	q.size.Add(1)
}

// Pop removes and returns the value at the head of the queue. It reports
// false if the queue was empty.
func (q *Queue[V, PV]) Pop() (*V, bool) {
	node := q.lockHead()
	if node == nil {
		q.headLocked.Store(false)
		return nil, false
	}

	// Stamp while the head lock is still held, so sequence numbers follow
	// the order in which nodes leave the queue.
	if s, ok := any(node).(Stamper); ok {
		s.StampPop(q.popSeq.Add(1))
	}

	n := q.link(node)
	next := n.next.Load()
	if next == nil {
		if q.tail.CompareAndSwap(node, nil) {
			// node was the only element; queue is now fully empty. A
			// producer that saw the nil tail may already have installed a
			// new head, so only clear head if it still names node.
			q.head.CompareAndSwap(node, nil)
			q.headLocked.Store(false)
		} else {
			// A push has claimed the tail but has not yet linked its node
			// in; spin until that link becomes visible.
			for next == nil {
				runtime.Gosched()
				next = n.next.Load()
			}
			q.head.Store(next)
			q.headLocked.Store(false)
		}
	} else {
		q.head.Store(next)
		q.headLocked.Store(false)
	}

	q.size.Add(-1)
	return node, true
}

// lockHead spins until it holds the exclusive head lock, then returns the
// current head (nil if the queue is empty). The caller owns the lock on
// return and must release it via q.headLocked.Store(false), whether or not
// it ends up popping anything.
func (q *Queue[V, PV]) lockHead() *V {
	for {
		if q.headLocked.CompareAndSwap(false, true) {
			return q.head.Load()
		}
		q.backoff.Spin(func() bool { return !q.headLocked.Load() })
	}
}

// Empty reports whether the queue currently holds no elements. Under
// concurrent mutation this is a snapshot, not a guarantee; it is exact
// once all producers and consumers have quiesced.
func (q *Queue[V, PV]) Empty() bool { return q.size.Load() == 0 }

// Len reports the queue's current length. Like Empty, this is exact only
// at quiescence.
func (q *Queue[V, PV]) Len() int64 { return q.size.Load() }

// Clear pops every element until the queue is empty. It is meant for
// single-writer use (for example, tearing down a queue no producer can
// still reach); running it concurrently with producers races exactly as
// any other Pop loop would.
func (q *Queue[V, PV]) Clear() {
	for {
		if _, ok := q.Pop(); !ok {
			return
		}
	}
}
