// Package ehcisim simulates the EHCI-style device controller and a USB
// host, so the ehci driver can be exercised without hardware.
//
// A [Controller] shares the driver's register block, queue head list and
// endpoint memory. It plays the controller's part of the handshake: it
// acts on prime and flush requests, fetches primed TDs into the queue
// head overlays, moves packet data through the TD buffers by bus address,
// retires TDs, and raises status bits.
//
// The host side is a set of token methods. Each returns the handshake a
// real host would see. Tokens are processed synchronously, and the
// controller only acts on registers when a token arrives or [Controller.Step]
// is called.
package ehcisim

import (
	"fmt"

	"github.com/ardnew/usbd/device/ehci"
	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg"
)

// Handshake is the device's answer to a token.
type Handshake uint8

// Handshakes. HandshakeNone means the device did not answer at all.
const (
	HandshakeNone Handshake = iota
	HandshakeACK
	HandshakeNAK
	HandshakeStall
)

// String returns the handshake name.
func (h Handshake) String() string {
	switch h {
	case HandshakeACK:
		return "ACK"
	case HandshakeNAK:
		return "NAK"
	case HandshakeStall:
		return "STALL"
	default:
		return "none"
	}
}

// PORTSC1.PSPD values the simulated port negotiates.
const (
	pspdFull = 0
	pspdHigh = 2
)

// Controller is a simulated device controller with a host attached.
type Controller struct {
	regs    *ehci.Registers
	state   *ehci.EndpointState
	mem     *ehci.Memory
	address uint8
	// flushing holds the flush requests seen by the last Step; they
	// finish on the next one.
	flushing uint32
	faults  map[hal.EndpointAddress]ehci.TDStatus
}

// New returns a controller operating on the driver's register block and
// DMA memory.
func New(regs *ehci.Registers, state *ehci.EndpointState, mem *ehci.Memory) *Controller {
	return &Controller{
		regs:   regs,
		state:  state,
		mem:    mem,
		faults: make(map[hal.EndpointAddress]ehci.TDStatus),
	}
}

// Address returns the address the device currently answers to.
func (c *Controller) Address() uint8 {
	return c.address
}

// Attached reports whether the driver set USBCMD.RS.
func (c *Controller) Attached() bool {
	return c.regs.USBCMD.HasBits(ehci.USBCMD_RS)
}

// InjectFault makes the next transaction on ep retire its TD with status
// instead of moving data.
func (c *Controller) InjectFault(ep hal.EndpointAddress, status ehci.TDStatus) {
	c.faults[ep] = status
}

// Step advances the controller by one tick. A flush request takes two
// ticks: the first one picks it up, the second retires the endpoint's
// transfer and clears its ENDPTFLUSH bit. A prime that arrives while its
// endpoint is still flushing is cancelled by the flush. Remaining primes
// fetch their TD into the overlay.
func (c *Controller) Step() {
	r := c.regs
	if done := c.flushing; done != 0 {
		r.ENDPTSTAT.ClearBits(done)
		r.ENDPTFLUSH.ClearBits(done)
	}
	c.flushing = r.ENDPTFLUSH.Read()
	p := r.ENDPTPRIME.Read()
	if p == 0 {
		return
	}
	for bit := 0; bit < 32; bit++ {
		if p&(1<<bit) == 0 {
			continue
		}
		if c.flushing&(1<<bit) != 0 {
			pkg.LogWarn(pkg.ComponentSim, "prime cancelled by flush", "qh", qhIndex(bit))
			continue
		}
		i := qhIndex(bit)
		qh := c.state.QH(i)
		overlay := qh.Overlay()
		if overlay.IsTerminated() || overlay.Next() != c.state.TDAddr(i)&^0x1F {
			pkg.LogWarn(pkg.ComponentSim, "prime without a linked TD", "qh", i)
			continue
		}
		overlay.CopyFrom(c.state.TD(i))
		r.ENDPTSTAT.SetBits(1 << bit)
	}
	r.ENDPTPRIME.Write(0)
}

// qhIndex maps an ENDPT* bitmap position to a queue head index.
func qhIndex(bit int) int {
	if bit >= 16 {
		return 2*(bit-16) + 1
	}
	return 2 * bit
}

func bitOf(ep hal.EndpointAddress) uint32 {
	if ep.IsIn() {
		return 1 << (16 + ep.Number())
	}
	return 1 << ep.Number()
}

func index(ep hal.EndpointAddress) int {
	i := 2 * int(ep.Number())
	if ep.IsIn() {
		i++
	}
	return i
}

// BusReset drives a USB reset. The device falls back to address 0 and the
// port reports the negotiated speed.
func (c *Controller) BusReset() {
	r := c.regs
	c.address = 0
	speed := uint32(pspdHigh)
	if r.PORTSC1.HasBits(ehci.PORTSC1_PFSC) {
		speed = pspdFull
	}
	r.PORTSC1.ModifyField(ehci.PORTSC1_PSPD, speed)
	r.PORTSC1.ClearBits(ehci.PORTSC1_SUSP)
	r.USBSTS.SetBits(ehci.USBSTS_URI)
	pkg.LogDebug(pkg.ComponentSim, "bus reset")
}

// Suspend idles the bus until the device suspends.
func (c *Controller) Suspend() {
	c.regs.PORTSC1.SetBits(ehci.PORTSC1_SUSP)
	c.regs.USBSTS.SetBits(ehci.USBSTS_SLI)
}

// Resume signals resume and reports the port change.
func (c *Controller) Resume() {
	c.regs.PORTSC1.ClearBits(ehci.PORTSC1_SUSP | ehci.PORTSC1_FPR)
	c.regs.USBSTS.SetBits(ehci.USBSTS_PCI)
}

// accepts reports whether the device answers tokens for addr.
func (c *Controller) accepts(addr uint8) bool {
	return c.Attached() && addr == c.address
}

// enabled reports whether ep can take part in a transaction.
func (c *Controller) enabled(ep hal.EndpointAddress) bool {
	n := ep.Number()
	if int(n) >= ehci.NumEndpoints {
		return false
	}
	if n == 0 {
		return c.state.QH(index(ep)).MaxPacketLen() > 0
	}
	ctrl := c.regs.ENDPTCTRL[n].Read()
	if ep.IsIn() {
		return ctrl&ehci.ENDPTCTRL_TXE != 0
	}
	return ctrl&ehci.ENDPTCTRL_RXE != 0
}

func (c *Controller) stalled(ep hal.EndpointAddress) bool {
	ctrl := c.regs.ENDPTCTRL[ep.Number()].Read()
	if ep.IsIn() {
		return ctrl&ehci.ENDPTCTRL_TXS != 0
	}
	return ctrl&ehci.ENDPTCTRL_RXS != 0
}

// Setup sends a SETUP transaction to control endpoint n at addr.
func (c *Controller) Setup(addr, n uint8, pkt hal.SetupPacket) Handshake {
	c.Step()
	ep := hal.NewEndpointAddress(n, hal.DirectionOut)
	if !c.accepts(addr) || !c.enabled(ep) {
		return HandshakeNone
	}
	r := c.regs
	// SETUP is always accepted and clears a protocol stall.
	r.ENDPTCTRL[n].ClearBits(ehci.ENDPTCTRL_RXS | ehci.ENDPTCTRL_TXS)

	qh := c.state.QH(index(ep))
	qh.SetSetup(pkt.Word())
	r.USBCMD.ClearBits(ehci.USBCMD_SUTW)
	r.ENDPTSETUPSTAT.SetBits(1 << n)
	if qh.InterruptOnSetup() {
		r.USBSTS.SetBits(ehci.USBSTS_UI)
	}
	pkg.LogDebug(pkg.ComponentSim, "setup", "addr", addr, "ep", n,
		"request", fmt.Sprintf("%#02x", pkt.Request))
	return HandshakeACK
}

// Out sends an OUT transaction carrying data to endpoint n at addr.
func (c *Controller) Out(addr, n uint8, data []byte) Handshake {
	c.Step()
	ep := hal.NewEndpointAddress(n, hal.DirectionOut)
	if !c.accepts(addr) || !c.enabled(ep) {
		return HandshakeNone
	}
	if c.stalled(ep) {
		return HandshakeStall
	}
	overlay, ok := c.active(ep)
	if !ok {
		return HandshakeNAK
	}
	if st, ok := c.faults[ep]; ok {
		delete(c.faults, ep)
		c.retire(ep, st)
		return HandshakeNone
	}

	mps := int(c.state.QH(index(ep)).MaxPacketLen())
	remaining := overlay.TotalBytes()
	if len(data) > mps || len(data) > remaining {
		c.retire(ep, ehci.TDStatusDataBufferError)
		return HandshakeNone
	}
	start := overlay.Buffer(0)
	buf, ok := c.mem.Resolve(start, len(data))
	if !ok {
		c.retire(ep, ehci.TDStatusDataBufferError)
		return HandshakeNone
	}
	copy(buf, data)
	c.advance(overlay, start, len(data), remaining)
	if overlay.TotalBytes() == 0 || len(data) < mps {
		c.retire(ep, 0)
	}
	return HandshakeACK
}

// In sends an IN token to endpoint n at addr and returns the data the
// device answered with.
func (c *Controller) In(addr, n uint8) ([]byte, Handshake) {
	c.Step()
	ep := hal.NewEndpointAddress(n, hal.DirectionIn)
	if !c.accepts(addr) || !c.enabled(ep) {
		return nil, HandshakeNone
	}
	if c.stalled(ep) {
		return nil, HandshakeStall
	}
	overlay, ok := c.active(ep)
	if !ok {
		return nil, HandshakeNAK
	}
	if st, ok := c.faults[ep]; ok {
		delete(c.faults, ep)
		c.retire(ep, st)
		return nil, HandshakeNone
	}

	mps := int(c.state.QH(index(ep)).MaxPacketLen())
	remaining := overlay.TotalBytes()
	size := min(remaining, mps)
	start := overlay.Buffer(0)
	buf, ok := c.mem.Resolve(start, size)
	if !ok {
		c.retire(ep, ehci.TDStatusDataBufferError)
		return nil, HandshakeNone
	}
	data := append([]byte(nil), buf...)
	c.advance(overlay, start, size, remaining)
	if overlay.TotalBytes() == 0 || size < mps {
		c.retire(ep, 0)
		if n == 0 {
			c.latchAddress()
		}
	}
	return data, HandshakeACK
}

// active returns the overlay of a primed endpoint that still has an active
// TD.
func (c *Controller) active(ep hal.EndpointAddress) (*ehci.TD, bool) {
	if !c.regs.ENDPTSTAT.HasBits(bitOf(ep)) {
		c.regs.ENDPTNAK.SetBits(bitOf(ep))
		return nil, false
	}
	overlay := c.state.QH(index(ep)).Overlay()
	if !overlay.IsActive() {
		c.regs.ENDPTNAK.SetBits(bitOf(ep))
		return nil, false
	}
	return overlay, true
}

// advance moves the overlay's buffer pointer past n transferred bytes.
func (c *Controller) advance(overlay *ehci.TD, start uint32, n, remaining int) {
	if err := overlay.SetBuffer(start+uint32(n), remaining-n); err != nil {
		overlay.SetTotalBytes(remaining - n)
	}
}

// retire completes the transfer on ep with status, writes the overlay
// back to the TD, and raises the completion.
func (c *Controller) retire(ep hal.EndpointAddress, status ehci.TDStatus) {
	r := c.regs
	i := index(ep)
	overlay := c.state.QH(i).Overlay()
	overlay.SetStatus(status)

	td := c.state.TD(i)
	td.SetTotalBytes(overlay.TotalBytes())
	td.SetStatus(status)

	r.ENDPTSTAT.ClearBits(bitOf(ep))
	r.ENDPTCOMPLETE.SetBits(bitOf(ep))
	switch {
	case status&(ehci.TDStatusHalted|ehci.TDStatusDataBufferError|ehci.TDStatusTransactionError) != 0:
		r.USBSTS.SetBits(ehci.USBSTS_UEI)
		pkg.LogDebug(pkg.ComponentSim, "transfer failed", "ep", ep, "status", status)
	case overlay.InterruptOnComplete():
		r.USBSTS.SetBits(ehci.USBSTS_UI)
	}
}

// latchAddress applies a staged address once an EP0 IN is acknowledged.
func (c *Controller) latchAddress() {
	r := c.regs
	v := r.DEVICEADDR.Read()
	if v&ehci.DEVICEADDR_USBADRA.Value(1) == 0 {
		return
	}
	c.address = uint8(ehci.DEVICEADDR_USBADR.Get(v))
	r.DEVICEADDR.Write(ehci.DEVICEADDR_USBADR.Value(uint32(c.address)))
	pkg.LogDebug(pkg.ComponentSim, "address latched", "address", c.address)
}
