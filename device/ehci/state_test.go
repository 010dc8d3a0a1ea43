package ehci

import (
	"testing"
	"unsafe"

	"github.com/ardnew/usbd/device/hal"
	"github.com/stretchr/testify/assert"
)

func TestEndpointStateAlignment(t *testing.T) {
	s := NewEndpointState()
	assert.Zero(t, s.ListAddr()%qhListAlign)
	for i := 0; i < numQH; i++ {
		assert.Zero(t, s.TDAddr(i)%tdAlign, "td %d", i)
		assert.Equal(t, uintptr(unsafe.Pointer(s.QH(0)))+uintptr(i)*qhStride,
			uintptr(unsafe.Pointer(s.QH(i))))
	}
}

func TestEndpointStateFresh(t *testing.T) {
	s := NewEndpointState()
	s.QH(3).SetMaxPacketLen(64)
	s.TD(3).SetActive()
	s.reset()
	for i := 0; i < numQH; i++ {
		assert.Zero(t, s.QH(i).Capabilities())
		assert.False(t, s.TD(i).IsActive())
		assert.True(t, s.TD(i).IsTerminated())
	}
}

func TestQHIndex(t *testing.T) {
	assert.Equal(t, 0, qhIndex(hal.NewEndpointAddress(0, hal.DirectionOut)))
	assert.Equal(t, 1, qhIndex(hal.NewEndpointAddress(0, hal.DirectionIn)))
	assert.Equal(t, 6, qhIndex(hal.NewEndpointAddress(3, hal.DirectionOut)))
	assert.Equal(t, 31, qhIndex(hal.NewEndpointAddress(15, hal.DirectionIn)))
}
