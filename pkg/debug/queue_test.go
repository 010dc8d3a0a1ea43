package debug

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueCapacity(t *testing.T) {
	for _, c := range []int{0, 1, 3, 63, 100} {
		assert.Panics(t, func() { NewQueue(c) }, "capacity %d", c)
	}
	assert.Equal(t, 64, NewQueue(64).Cap())
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4)

	_, ok := q.Dequeue()
	assert.False(t, ok)

	for i := 0; i < 4; i++ {
		require.True(t, q.Enqueue(EpIn(i)))
	}
	assert.Equal(t, 4, q.Len())

	// full: the newest event is dropped
	assert.False(t, q.Enqueue(EpIn(99)))
	assert.Equal(t, uint64(1), q.Dropped())

	for i := 0; i < 4; i++ {
		ev, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, EpIn(i), ev)
	}
	assert.Zero(t, q.Len())

	// wraps around after draining
	for round := 0; round < 3; round++ {
		require.True(t, q.Enqueue(SetAddress(uint8(round))))
		ev, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, uint8(round), ev.Address)
	}
}

func TestQueueDrainIsFinite(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 6; i++ {
		q.Enqueue(EpOut(uint8(i)))
	}

	var got []Event
	n := q.Drain(func(ev Event) {
		got = append(got, ev)
		// a producer refilling during the drain cannot extend it past Cap
		q.Enqueue(PollNone())
	})
	assert.Equal(t, 8, n)
	assert.Len(t, got, 8)
	for i := 0; i < 6; i++ {
		assert.Equal(t, EpOut(uint8(i)), got[i])
	}
}

func TestQueueConcurrentProducersOverflow(t *testing.T) {
	const (
		capacity  = 64
		producers = 8
		perProd   = 100
	)
	q := NewQueue(capacity)

	var wg sync.WaitGroup
	var accepted [producers]int
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				ev := Event{Kind: KindEpIn, Index: uint8(p), Len: uint32(i)}
				if q.Enqueue(ev) {
					accepted[p]++
				}
			}
		}(p)
	}
	wg.Wait()

	total := 0
	for _, n := range accepted {
		total += n
	}
	assert.Equal(t, capacity, total)
	assert.Equal(t, uint64(producers*perProd-capacity), q.Dropped())

	// every stored event is intact and each producer's events stay in order
	last := make(map[uint8]int)
	seen := make(map[uint8]int)
	n := q.Drain(func(ev Event) {
		require.Equal(t, KindEpIn, ev.Kind)
		require.Less(t, int(ev.Index), producers)
		prev, ok := last[ev.Index]
		if ok {
			assert.Greater(t, int(ev.Len), prev)
		}
		last[ev.Index] = int(ev.Len)
		seen[ev.Index]++
	})
	assert.Equal(t, capacity, n)
	for p := 0; p < producers; p++ {
		assert.Equal(t, accepted[p], seen[uint8(p)])
	}
}

func TestQueueConcurrentProducersAndConsumer(t *testing.T) {
	q := NewQueue(16)
	const total = 2000

	var wg sync.WaitGroup
	var sent, received int
	var mu sync.Mutex
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < total/4; i++ {
				if q.Enqueue(PollNone()) {
					mu.Lock()
					sent++
					mu.Unlock()
				}
			}
		}()
	}

	producersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(producersDone)
	}()

	for drained := false; !drained; {
		select {
		case <-producersDone:
			drained = true
		default:
		}
		received += q.Drain(func(ev Event) {
			assert.Equal(t, KindPollNone, ev.Kind)
		})
	}

	assert.Equal(t, sent, received)
	assert.Equal(t, uint64(total-sent), q.Dropped())
}
