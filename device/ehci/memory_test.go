package ehci

import (
	"testing"

	"github.com/ardnew/usbd/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAlloc(t *testing.T) {
	m := NewMemory(128)
	assert.Equal(t, 128, m.Size())

	a, addrA, err := m.alloc(7)
	require.NoError(t, err)
	assert.Len(t, a, 7)
	assert.Equal(t, 7, cap(a))

	b, addrB, err := m.alloc(64)
	require.NoError(t, err)
	assert.Len(t, b, 64)
	assert.Equal(t, addrA+8, addrB, "allocations are word aligned")
	assert.Equal(t, 72, m.Used())

	_, _, err = m.alloc(64)
	assert.ErrorIs(t, err, pkg.ErrEndpointMemoryOverflow)
	assert.Equal(t, 72, m.Used(), "a failed allocation takes nothing")
}

func TestMemoryResolve(t *testing.T) {
	m := NewMemory(64)
	buf, addr, err := m.alloc(16)
	require.NoError(t, err)

	copy(buf, "hello")
	got, ok := m.Resolve(addr, 5)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got)

	_, ok = m.Resolve(addr+60, 8)
	assert.False(t, ok)
	_, ok = m.Resolve(addr-1, 1)
	assert.False(t, ok)
	_, ok = m.Resolve(addr, -1)
	assert.False(t, ok)

	end, ok := m.Resolve(addr+64, 0)
	assert.True(t, ok)
	assert.Empty(t, end)
}

func TestMemoryFromEmpty(t *testing.T) {
	m := MemoryFrom(nil)
	_, _, err := m.alloc(1)
	assert.ErrorIs(t, err, pkg.ErrEndpointMemoryOverflow)
}
