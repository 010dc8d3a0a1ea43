package ehci

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQHLayout(t *testing.T) {
	assert.Equal(t, uintptr(qhStride), unsafe.Sizeof(QH{}))
	assert.Equal(t, uintptr(0x08), unsafe.Offsetof(QH{}.overlay))
	assert.Equal(t, uintptr(0x28), unsafe.Offsetof(QH{}.setup))
}

func TestQHMaxPacketLenClamps(t *testing.T) {
	var qh QH
	for n := uint32(0); n <= 2000; n++ {
		qh.SetMaxPacketLen(n)
		require.Equal(t, min(n, MaxPacketLen), qh.MaxPacketLen(), "n=%d", n)
	}
}

func TestQHInterruptOnSetup(t *testing.T) {
	var qh QH
	qh.SetInterruptOnSetup(true)
	assert.Equal(t, uint32(1<<15), qh.Capabilities())
	assert.True(t, qh.InterruptOnSetup())

	qh.SetInterruptOnSetup(false)
	assert.Zero(t, qh.Capabilities())

	// neighbouring fields are untouched
	qh.SetMaxPacketLen(64)
	qh.SetZeroLengthTermination(false)
	before := qh.Capabilities()
	qh.SetInterruptOnSetup(true)
	assert.Equal(t, before|1<<15, qh.Capabilities())
	qh.SetInterruptOnSetup(false)
	assert.Equal(t, before, qh.Capabilities())
}

func TestQHZeroLengthTerminationInverted(t *testing.T) {
	var qh QH
	qh.SetZeroLengthTermination(false)
	assert.Equal(t, uint32(1<<29), qh.Capabilities())
	assert.False(t, qh.ZeroLengthTermination())

	qh.SetZeroLengthTermination(true)
	assert.Zero(t, qh.Capabilities())
	assert.True(t, qh.ZeroLengthTermination())
}

func TestQHFresh(t *testing.T) {
	var qh QH
	assert.Zero(t, qh.Capabilities())
	assert.False(t, qh.Overlay().IsActive())
	assert.Zero(t, qh.Setup())

	qh.SetMaxPacketLen(512)
	qh.SetSetup(0x0005_0000_0000_0500)
	qh.Overlay().SetActive()
	qh.Reset()
	assert.Zero(t, qh.Capabilities())
	assert.False(t, qh.Overlay().IsActive())
	assert.True(t, qh.Overlay().IsTerminated())
	assert.Zero(t, qh.Setup())
}
