package ehci

import (
	"fmt"
	"sync/atomic"

	"github.com/ardnew/usbd/pkg"
)

// MaxInstances is the number of USB cores that can be taken.
const MaxInstances = 2

var taken [MaxInstances + 1]atomic.Bool

// Instance is the exclusive right to program one USB core.
//
// Exactly one Instance exists per core at a time. It is obtained once at
// startup and passed to the constructor that programs the core.
type Instance struct {
	id   int
	regs *Registers
}

// Take claims core id (1 or 2), whose registers live at regs.
// It returns [pkg.ErrAlreadyTaken] if the core already has an owner.
func Take(id int, regs *Registers) (*Instance, error) {
	if id < 1 || id > MaxInstances {
		return nil, fmt.Errorf("USB%d: %w", id, pkg.ErrInvalidParameter)
	}
	if regs == nil {
		return nil, fmt.Errorf("USB%d: nil register block: %w", id, pkg.ErrInvalidParameter)
	}
	if !taken[id].CompareAndSwap(false, true) {
		return nil, fmt.Errorf("USB%d: %w", id, pkg.ErrAlreadyTaken)
	}
	return &Instance{id: id, regs: regs}, nil
}

// MustTake is like [Take] but panics on failure. A second acquisition is a
// programming error that must stop startup.
func MustTake(id int, regs *Registers) *Instance {
	inst, err := Take(id, regs)
	if err != nil {
		panic("ehci: cannot take peripheral: " + err.Error())
	}
	return inst
}

// ID returns the core number.
func (i *Instance) ID() int {
	return i.id
}

// Registers returns the core's register block.
func (i *Instance) Registers() *Registers {
	return i.regs
}

// Release gives up ownership so the core can be taken again.
// The Instance must not be used afterwards.
func (i *Instance) Release() {
	if i.regs == nil {
		return
	}
	i.regs = nil
	taken[i.id].Store(false)
}
