package ehci

import (
	"testing"

	"github.com/ardnew/usbd/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeOnce(t *testing.T) {
	regs := new(Registers)
	inst, err := Take(2, regs)
	require.NoError(t, err)
	assert.Equal(t, 2, inst.ID())
	assert.Same(t, regs, inst.Registers())

	_, err = Take(2, new(Registers))
	assert.ErrorIs(t, err, pkg.ErrAlreadyTaken)

	inst.Release()
	inst.Release()
	again, err := Take(2, regs)
	require.NoError(t, err)
	again.Release()
}

func TestTakeInvalid(t *testing.T) {
	_, err := Take(0, new(Registers))
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
	_, err = Take(MaxInstances+1, new(Registers))
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
	_, err = Take(1, nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestMustTakePanicsOnSecondTake(t *testing.T) {
	inst := MustTake(1, new(Registers))
	defer inst.Release()

	assert.PanicsWithValue(t,
		"ehci: cannot take peripheral: USB1: peripheral already taken",
		func() { MustTake(1, new(Registers)) })
}
