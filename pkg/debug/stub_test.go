//go:build !usbdebug

package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubRecordsNothing(t *testing.T) {
	assert.False(t, Enabled)

	Record(Reset())
	Record(PollNone())
	assert.Zero(t, Len())
	assert.Zero(t, Dropped())

	_, ok := Next()
	assert.False(t, ok)
	assert.Zero(t, Drain(func(Event) { t.Fatal("stub delivered an event") }))
}
