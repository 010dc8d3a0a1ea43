//go:build !usbdebug

package debug

// Enabled reports whether the driver was built with the "usbdebug" tag.
const Enabled = false

// Capacity is zero when built without the "usbdebug" tag.
const Capacity = 0

// Record is a no-op when built without the "usbdebug" tag.
func Record(_ Event) {}

// Next always returns false when built without the "usbdebug" tag.
func Next() (Event, bool) {
	return Event{}, false
}

// Drain is a no-op when built without the "usbdebug" tag.
func Drain(_ func(Event)) int {
	return 0
}

// Len always returns zero when built without the "usbdebug" tag.
func Len() int {
	return 0
}

// Dropped always returns zero when built without the "usbdebug" tag.
func Dropped() uint64 {
	return 0
}
