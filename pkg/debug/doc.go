// Package debug records driver transitions for offline inspection.
//
// The package is conditionally compiled using the "usbdebug" build tag:
//
//	go build -tags usbdebug
//	go test -tags usbdebug
//
// With the tag, [Record] places events on a 64-entry lock-free queue that
// any context may write, including interrupt handlers. Without it, Record
// and the drain functions are empty and [Enabled] is false, so
// instrumentation stays in place at no cost in production builds.
//
// # Recording
//
// Drivers record events with the constructor for each kind:
//
//	debug.Record(debug.AllocEp(1, hal.DirectionIn, hal.EndpointTypeBulk))
//
// Record never blocks and never fails observably. When the queue is full the
// newest event is dropped and counted by [Dropped].
//
// # Draining
//
// A single out-of-band consumer drains the queue:
//
//	debug.Drain(func(ev debug.Event) {
//	    fmt.Println(ev)
//	})
//
// The consumer must not report events over USB. Doing so feeds its own
// traffic back into the queue.
//
// [NewQueue] builds private queues with the same semantics.
package debug
