//go:build usbdebug

package ehcisim

import (
	"testing"

	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg/debug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainKinds() []debug.Event {
	var evs []debug.Event
	debug.Drain(func(ev debug.Event) {
		if ev.Kind != debug.KindPoll && ev.Kind != debug.KindPollNone {
			evs = append(evs, ev)
		}
	})
	return evs
}

func TestSetAddressEvents(t *testing.T) {
	r := newRig(t)
	drainKinds()

	r.setup(t, 0, hal.SetupPacket{Request: hal.RequestSetAddress, Value: 7})
	r.bus.SetAddress(7)
	_, err := r.bus.Write(ep0In, nil)
	require.NoError(t, err)
	_, hs := r.host.In(0, 0)
	require.Equal(t, HandshakeACK, hs)
	r.bus.Poll()

	assert.Equal(t, []debug.Event{
		debug.PollUI(0, 0, 1),
		debug.Ep0OutSetup(),
		debug.SetAddress(7),
		debug.EpIn(0),
		debug.AddressActive(7),
		debug.PollUI(0, 1, 0),
	}, drainKinds())
}

func TestErrorEvents(t *testing.T) {
	r := newRig(t)
	r.bus.Configure()
	drainKinds()

	r.host.InjectFault(ep1Out, 0x40)
	r.host.Out(0, 1, []byte{1})
	r.bus.Poll()
	_, err := r.bus.Read(ep1Out, make([]byte, 64))
	require.Error(t, err)

	// EP5 IN completing without an endpoint is an anomaly
	r.regs.ENDPTCOMPLETE.SetBits(1 << (16 + 5))
	r.regs.USBSTS.SetBits(1)
	r.bus.Poll()

	assert.Equal(t, []debug.Event{
		debug.EpError(1, hal.DirectionOut, debug.CodeHalted),
		debug.PollUI(1<<1, 0, 0),
		debug.EpError(1, hal.DirectionOut, debug.CodeHalted),
		debug.Anomaly(5, hal.DirectionIn, debug.CodeUnallocated),
	}, drainKinds())
}

func TestFlushTimeoutEvent(t *testing.T) {
	r := newRig(t)
	r.bus.SetIdle(func() {})
	drainKinds()

	r.setup(t, 0, hal.SetupPacket{Request: hal.RequestSetAddress, Value: 3})

	assert.Equal(t, []debug.Event{
		debug.PollUI(0, 0, 1),
		debug.Anomaly(0, hal.DirectionOut, debug.CodeFlushTimeout),
		debug.Ep0OutSetup(),
	}, drainKinds())
}
