package debug

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Queue is a bounded, lock-free, multi-producer multi-consumer queue of
// events.
//
// Enqueue never blocks and never grows the queue: when every slot is taken
// the new event is dropped and counted. Events already queued are never
// overwritten.
type Queue struct {
	_       cpu.CacheLinePad
	enqueue atomic.Uint64
	_       cpu.CacheLinePad
	dequeue atomic.Uint64
	_       cpu.CacheLinePad
	dropped atomic.Uint64
	mask    uint64
	slots   []slot
}

// slot.seq equals the enqueue position that may fill it, or that position
// plus one once it holds an event.
type slot struct {
	seq atomic.Uint64
	ev  Event
}

// NewQueue returns a queue holding up to capacity events.
// Capacity must be a power of two and at least 2.
func NewQueue(capacity int) *Queue {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("debug: queue capacity must be a power of two >= 2")
	}
	q := &Queue{
		mask:  uint64(capacity - 1),
		slots: make([]slot, capacity),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Enqueue adds ev to the queue. It returns false, and counts the event as
// dropped, if the queue is full.
func (q *Queue) Enqueue(ev Event) bool {
	pos := q.enqueue.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				s.ev = ev
				s.seq.Store(pos + 1)
				return true
			}
			pos = q.enqueue.Load()
		case diff < 0:
			q.dropped.Add(1)
			return false
		default:
			pos = q.enqueue.Load()
		}
	}
}

// Dequeue removes the oldest event. It returns false if the queue is empty.
func (q *Queue) Dequeue() (Event, bool) {
	pos := q.dequeue.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch diff := int64(seq - (pos + 1)); {
		case diff == 0:
			if q.dequeue.CompareAndSwap(pos, pos+1) {
				ev := s.ev
				s.seq.Store(pos + q.mask + 1)
				return ev, true
			}
			pos = q.dequeue.Load()
		case diff < 0:
			return Event{}, false
		default:
			pos = q.dequeue.Load()
		}
	}
}

// Drain dequeues events and passes them to fn until the queue is empty,
// delivering at most Cap events so that busy producers cannot keep it
// running. It returns the number of events delivered.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for n < len(q.slots) {
		ev, ok := q.Dequeue()
		if !ok {
			return n
		}
		fn(ev)
		n++
	}
	return n
}

// Len returns an approximation of the number of queued events.
func (q *Queue) Len() int {
	n := int64(q.enqueue.Load() - q.dequeue.Load())
	switch {
	case n < 0:
		return 0
	case n > int64(len(q.slots)):
		return len(q.slots)
	}
	return int(n)
}

// Dropped returns the number of events rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
