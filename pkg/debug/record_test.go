//go:build usbdebug

package debug

import (
	"testing"

	"github.com/ardnew/usbd/device/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndDrain(t *testing.T) {
	require.True(t, Enabled)
	Drain(func(Event) {})

	Record(Reset())
	Record(AllocEp(1, hal.DirectionIn, hal.EndpointTypeBulk))
	assert.Equal(t, 2, Len())

	ev, ok := Next()
	require.True(t, ok)
	assert.Equal(t, KindReset, ev.Kind)

	var got []Event
	assert.Equal(t, 1, Drain(func(ev Event) { got = append(got, ev) }))
	assert.Equal(t, []Event{AllocEp(1, hal.DirectionIn, hal.EndpointTypeBulk)}, got)

	_, ok = Next()
	assert.False(t, ok)
}

func TestRecordOverflowDrops(t *testing.T) {
	Drain(func(Event) {})
	before := Dropped()

	for i := 0; i < Capacity+10; i++ {
		Record(EpIn(i))
	}
	assert.Equal(t, before+10, Dropped())

	i := 0
	Drain(func(ev Event) {
		assert.Equal(t, uint32(i), ev.Len)
		i++
	})
	assert.Equal(t, Capacity, i)
}
