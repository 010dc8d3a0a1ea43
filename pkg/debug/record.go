//go:build usbdebug

package debug

// Enabled reports whether the driver was built with the "usbdebug" tag.
const Enabled = true

// Capacity is the number of events the driver channel holds.
const Capacity = 64

var events = NewQueue(Capacity)

// Record queues ev on the driver channel. It never blocks; when the channel
// is full the event is dropped.
func Record(ev Event) {
	events.Enqueue(ev)
}

// Next removes and returns the oldest recorded event.
func Next() (Event, bool) {
	return events.Dequeue()
}

// Drain delivers recorded events to fn until the channel is empty and
// returns how many were delivered.
func Drain(fn func(Event)) int {
	return events.Drain(fn)
}

// Len returns the approximate number of recorded events waiting.
func Len() int {
	return events.Len()
}

// Dropped returns how many events were dropped because the channel was full.
func Dropped() uint64 {
	return events.Dropped()
}
