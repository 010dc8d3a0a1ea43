package ehci

import (
	"fmt"
	"math/bits"
	"runtime"

	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg"
	"github.com/ardnew/usbd/pkg/debug"
)

// BusAdapter drives one USB core in device mode and implements [hal.Bus].
//
// The adapter owns the core's registers through an [Instance], the DMA
// tables through an [EndpointState], and endpoint buffers through a
// [Memory]. It is not safe for concurrent use; the device stack calls it
// from a single polling loop.
type BusAdapter struct {
	inst  *Instance
	regs  *Registers
	state *EndpointState
	mem   *Memory
	cfg   Config
	idle  func()

	eps [numQH]*endpoint

	suspended      bool
	addressPending bool
	pendingAddress uint8
	ep0OutPending  int // bytes still expected in an EP0 OUT data stage
}

var _ hal.Bus = (*BusAdapter)(nil)

// New programs the core behind inst for device mode and returns its
// adapter. The device stays detached until [BusAdapter.Enable].
func New(inst *Instance, mem *Memory, state *EndpointState, cfg Config) (*BusAdapter, error) {
	if inst == nil || inst.Registers() == nil {
		return nil, fmt.Errorf("nil instance: %w", pkg.ErrInvalidParameter)
	}
	if mem == nil || state == nil {
		return nil, fmt.Errorf("nil endpoint memory: %w", pkg.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if state.ListAddr()%qhListAlign != 0 {
		panic(fmt.Sprintf("ehci: queue head list at %#08x is not %d-byte aligned",
			state.ListAddr(), qhListAlign))
	}

	b := &BusAdapter{
		inst:  inst,
		regs:  inst.Registers(),
		state: state,
		mem:   mem,
		cfg:   cfg,
		idle:  runtime.Gosched,
	}
	state.reset()

	r := b.regs
	r.USBCMD.ClearBits(USBCMD_RS)
	r.USBMODE.Write(USBMODE_CM.Value(USBMODE_CM_DEVICE) | USBMODE_SLOM)
	r.ENDPTLISTADDR.Write(state.ListAddr())
	if cfg.speed() == hal.SpeedFull {
		r.PORTSC1.SetBits(PORTSC1_PFSC)
	} else {
		r.PORTSC1.ClearBits(PORTSC1_PFSC)
	}
	r.USBINTR.Write(pollMask)
	w1c(&r.USBSTS, r.USBSTS.Read())

	pkg.LogInfo(pkg.ComponentBus, "controller initialized",
		"core", inst.ID(),
		"speed", cfg.speed(),
		"max_endpoints", cfg.MaxEndpoints,
		"list", fmt.Sprintf("%#08x", state.ListAddr()))
	return b, nil
}

// Config returns the adapter's configuration.
func (b *BusAdapter) Config() Config {
	return b.cfg
}

// SetIdle sets the function called while the adapter waits on the
// controller, such as for a flush to finish. The default yields the
// processor; nil restores it.
func (b *BusAdapter) SetIdle(fn func()) {
	if fn == nil {
		fn = runtime.Gosched
	}
	b.idle = fn
}

// AllocEP allocates the first free endpoint in direction dir. Control
// endpoints always live at endpoint 0. A maxPacketSize of 0 on a control
// endpoint selects the configured EP0 packet size.
func (b *BusAdapter) AllocEP(dir hal.Direction, typ hal.EndpointType, maxPacketSize uint16) (hal.EndpointAddress, error) {
	if typ == hal.EndpointTypeControl {
		addr := hal.NewEndpointAddress(0, dir)
		if b.eps[qhIndex(addr)] != nil {
			return 0, fmt.Errorf("%s %s: %w", typ, dir, pkg.ErrEndpointOverflow)
		}
		return b.AllocEPAt(addr, typ, maxPacketSize)
	}
	for n := 1; n < b.cfg.MaxEndpoints; n++ {
		addr := hal.NewEndpointAddress(uint8(n), dir)
		if b.eps[qhIndex(addr)] == nil {
			return b.AllocEPAt(addr, typ, maxPacketSize)
		}
	}
	pkg.LogWarn(pkg.ComponentBus, "no free endpoint", "dir", dir, "type", typ)
	return 0, fmt.Errorf("%s %s: %w", typ, dir, pkg.ErrEndpointOverflow)
}

// AllocEPAt allocates the endpoint at addr.
func (b *BusAdapter) AllocEPAt(addr hal.EndpointAddress, typ hal.EndpointType, maxPacketSize uint16) (hal.EndpointAddress, error) {
	n := addr.Number()
	if int(n) >= b.cfg.MaxEndpoints {
		return 0, fmt.Errorf("%s: beyond %d endpoints: %w", addr, b.cfg.MaxEndpoints, pkg.ErrInvalidEndpoint)
	}
	if (typ == hal.EndpointTypeControl) != (n == 0) {
		return 0, fmt.Errorf("%s: %s endpoint: %w", addr, typ, pkg.ErrInvalidEndpoint)
	}
	i := qhIndex(addr)
	if b.eps[i] != nil {
		return 0, fmt.Errorf("%s: already allocated: %w", addr, pkg.ErrInvalidEndpoint)
	}
	if maxPacketSize == 0 {
		if typ != hal.EndpointTypeControl {
			return 0, fmt.Errorf("%s: zero max packet size: %w", addr, pkg.ErrInvalidParameter)
		}
		maxPacketSize = uint16(b.cfg.EP0MaxPacketSize)
	}

	buf, bufAddr, err := b.mem.alloc(int(min(maxPacketSize, MaxPacketLen)))
	if err != nil {
		pkg.LogWarn(pkg.ComponentBus, "endpoint memory exhausted", "ep", addr, "error", err)
		return 0, fmt.Errorf("%s: %w", addr, err)
	}
	b.eps[i] = newEndpoint(addr, typ, b.state.QH(i), b.state.TD(i), b.state.TDAddr(i),
		buf, bufAddr, b.cfg.ZeroLengthTermination)

	debug.Record(debug.AllocEp(n, addr.Direction(), typ))
	pkg.LogInfo(pkg.ComponentEndpoint, "endpoint allocated",
		"ep", addr, "type", typ, "max_packet_size", len(buf))
	return addr, nil
}

// Enable attaches the device to the bus.
func (b *BusAdapter) Enable() {
	b.regs.USBCMD.SetBits(USBCMD_RS)
	pkg.LogInfo(pkg.ComponentBus, "attached")
}

// Reset handles a bus reset: it acknowledges every pending endpoint
// event, flushes all primed transfers, forgets the device address, and
// disables every endpoint but 0. Non-control endpoints stay allocated but
// are unusable until the next [BusAdapter.Configure].
func (b *BusAdapter) Reset() {
	r := b.regs
	w1c(&r.ENDPTSETUPSTAT, r.ENDPTSETUPSTAT.Read())
	w1c(&r.ENDPTCOMPLETE, r.ENDPTCOMPLETE.Read())
	w1c(&r.ENDPTNAK, r.ENDPTNAK.Read())
	b.flush(endptRXMask | endptTXMask)
	r.DEVICEADDR.Write(0)

	r.ENDPTCTRL[0].ClearBits(ENDPTCTRL_RXS | ENDPTCTRL_TXS)
	for _, ep := range b.eps {
		if ep == nil {
			continue
		}
		ep.disable(r)
		ep.td.Reset()
		ep.qh.Overlay().Reset()
		ep.requested = 0
		ep.configured = ep.number() == 0
	}

	b.addressPending = false
	b.pendingAddress = 0
	b.ep0OutPending = 0
	b.suspended = false

	debug.Record(debug.Reset())
	pkg.LogInfo(pkg.ComponentBus, "bus reset")
}

// SetAddress stages the device address. The controller holds it back
// until the host acknowledges the next EP0 IN transfer, which is the
// status stage of SET_ADDRESS.
func (b *BusAdapter) SetAddress(addr uint8) {
	b.regs.DEVICEADDR.Write(DEVICEADDR_USBADR.Value(uint32(addr)) | DEVICEADDR_USBADRA.Value(1))
	b.addressPending = true
	b.pendingAddress = addr
	debug.Record(debug.SetAddress(addr))
	pkg.LogInfo(pkg.ComponentBus, "address staged", "address", addr)
}

// Address returns the address programmed into the core, staged or not.
func (b *BusAdapter) Address() uint8 {
	return uint8(b.regs.DEVICEADDR.ReadField(DEVICEADDR_USBADR))
}

// Configure enables every allocated non-control endpoint and primes each
// OUT endpoint to receive. OUT endpoints that are still primed, or hold a
// completion not yet read, are left alone.
func (b *BusAdapter) Configure() {
	r := b.regs
	for _, ep := range b.eps {
		if ep == nil || ep.number() == 0 {
			continue
		}
		ep.enable(r)
		ep.configured = true
		if ep.addr.IsIn() || ep.isPrimed(r) || r.ENDPTCOMPLETE.HasBits(ep.bit()) {
			continue
		}
		if err := ep.schedule(r, ep.maxPacketSize()); err != nil {
			pkg.LogError(pkg.ComponentEndpoint, "prime failed", "ep", ep.addr, "error", err)
		}
	}
	debug.Record(debug.Configure())
	pkg.LogInfo(pkg.ComponentBus, "configured")
}

// Poll reads USBSTS once and reports the most significant event. Status
// bits that are not acted on stay latched for the next call. When nothing
// is pending Poll changes no state.
func (b *BusAdapter) Poll() hal.PollResult {
	r := b.regs
	sts := r.USBSTS.Read()
	if sts&pollMask == 0 {
		debug.Record(debug.PollNone())
		return hal.PollResult{}
	}
	debug.Record(debug.Poll(sts))

	switch {
	case sts&USBSTS_URI != 0:
		w1c(&r.USBSTS, sts&pollMask)
		debug.Record(debug.PollURI())
		return hal.PollResult{Event: hal.PollReset}
	case sts&USBSTS_SLI != 0:
		w1c(&r.USBSTS, USBSTS_SLI)
		b.suspended = true
		debug.Record(debug.PollSLI())
		return hal.PollResult{Event: hal.PollSuspend}
	}

	if sts&USBSTS_PCI != 0 {
		w1c(&r.USBSTS, USBSTS_PCI)
		debug.Record(debug.PollPCI())
		if b.suspended && !r.PORTSC1.HasBits(PORTSC1_SUSP) {
			b.suspended = false
			return hal.PollResult{Event: hal.PollResume}
		}
	}

	if sts&(USBSTS_UI|USBSTS_UEI) != 0 {
		w1c(&r.USBSTS, sts&(USBSTS_UI|USBSTS_UEI))
		return b.pollTransfers()
	}
	return hal.PollResult{}
}

// pollTransfers collects the endpoint bitmaps. IN completions are
// acknowledged here; SETUP and OUT completions stay latched until the
// stack reads them.
func (b *BusAdapter) pollTransfers() hal.PollResult {
	r := b.regs
	var res hal.PollResult

	setup := r.ENDPTSETUPSTAT.Read() & endptRXMask
	for m := setup; m != 0; m &= m - 1 {
		n := uint8(bits.TrailingZeros32(m))
		ep := b.eps[2*int(n)]
		if ep == nil || ep.typ != hal.EndpointTypeControl {
			debug.Record(debug.Anomaly(n, hal.DirectionOut, debug.CodeUnallocated))
			w1c(&r.ENDPTSETUPSTAT, 1<<n)
			continue
		}
		res.EPSetup |= 1 << n
	}

	complete := r.ENDPTCOMPLETE.Read()
	for m := complete & endptRXMask; m != 0; m &= m - 1 {
		n := uint8(bits.TrailingZeros32(m))
		ep := b.eps[2*int(n)]
		if ep == nil {
			debug.Record(debug.Anomaly(n, hal.DirectionOut, debug.CodeUnallocated))
			w1c(&r.ENDPTCOMPLETE, 1<<n)
			continue
		}
		if err := ep.td.Err(); err != nil {
			debug.Record(debug.EpError(n, hal.DirectionOut, errorCode(err)))
		}
		res.EPOut |= 1 << n
	}
	for m := complete >> 16; m != 0; m &= m - 1 {
		n := uint8(bits.TrailingZeros32(m))
		ep := b.eps[2*int(n)+1]
		w1c(&r.ENDPTCOMPLETE, 1<<(16+n))
		if ep == nil {
			debug.Record(debug.Anomaly(n, hal.DirectionIn, debug.CodeUnallocated))
			continue
		}
		if err := ep.td.Err(); err != nil {
			debug.Record(debug.EpError(n, hal.DirectionIn, errorCode(err)))
		}
		if n == 0 && b.addressPending {
			b.addressPending = false
			debug.Record(debug.AddressActive(b.pendingAddress))
		}
		res.EPInComplete |= 1 << n
	}

	if res.EPSetup|res.EPOut|res.EPInComplete == 0 {
		return hal.PollResult{}
	}
	res.Event = hal.PollData
	debug.Record(debug.PollUI(res.EPOut, res.EPInComplete, res.EPSetup))
	return res
}

// lookup resolves an endpoint address to a usable endpoint.
func (b *BusAdapter) lookup(addr hal.EndpointAddress) (*endpoint, error) {
	if int(addr.Number()) >= b.cfg.MaxEndpoints {
		return nil, fmt.Errorf("%s: %w", addr, pkg.ErrInvalidEndpoint)
	}
	ep := b.eps[qhIndex(addr)]
	if ep == nil {
		return nil, fmt.Errorf("%s: not allocated: %w", addr, pkg.ErrInvalidEndpoint)
	}
	if !ep.configured {
		return nil, fmt.Errorf("%s: not configured: %w", addr, pkg.ErrInvalidState)
	}
	return ep, nil
}

// Write copies data into the IN endpoint's buffer and primes it.
// It returns [pkg.ErrWouldBlock] while the previous transfer is in flight.
func (b *BusAdapter) Write(addr hal.EndpointAddress, data []byte) (int, error) {
	ep, err := b.lookup(addr)
	if err != nil {
		return 0, err
	}
	if !ep.addr.IsIn() {
		return 0, fmt.Errorf("%s: write to OUT endpoint: %w", addr, pkg.ErrInvalidEndpoint)
	}
	if ep.isStalled(b.regs) {
		return 0, fmt.Errorf("%s: %w", addr, pkg.ErrStall)
	}
	if len(data) > ep.maxPacketSize() {
		return 0, fmt.Errorf("%s: %d bytes exceed %d: %w",
			addr, len(data), ep.maxPacketSize(), pkg.ErrBufferOverflow)
	}
	if ep.isPrimed(b.regs) {
		return 0, pkg.ErrWouldBlock
	}
	copy(ep.buf, data)
	if err := ep.schedule(b.regs, len(data)); err != nil {
		debug.Record(debug.EpError(addr.Number(), hal.DirectionIn, errorCode(err)))
		return 0, err
	}
	debug.Record(debug.EpIn(len(data)))
	return len(data), nil
}

// Read copies the pending SETUP packet or received OUT data into buf.
// It returns [pkg.ErrWouldBlock] when nothing has arrived.
func (b *BusAdapter) Read(addr hal.EndpointAddress, buf []byte) (int, error) {
	ep, err := b.lookup(addr)
	if err != nil {
		return 0, err
	}
	if ep.addr.IsIn() {
		return 0, fmt.Errorf("%s: read from IN endpoint: %w", addr, pkg.ErrInvalidEndpoint)
	}
	r := b.regs
	if ep.typ == hal.EndpointTypeControl && r.ENDPTSETUPSTAT.HasBits(ep.bit()) {
		return b.takeSetup(ep, buf)
	}
	if ep.isStalled(r) {
		return 0, fmt.Errorf("%s: %w", addr, pkg.ErrStall)
	}
	if !r.ENDPTCOMPLETE.HasBits(ep.bit()) {
		return 0, pkg.ErrWouldBlock
	}

	if err := ep.td.Err(); err != nil {
		ep.clearComplete(r)
		ep.clearNAK(r)
		debug.Record(debug.EpError(ep.number(), hal.DirectionOut, errorCode(err)))
		b.rearm(ep, 0)
		return 0, fmt.Errorf("%s: %w", addr, err)
	}
	n := ep.transferred()
	if n > len(buf) {
		return 0, fmt.Errorf("%s: %d bytes pending, buffer holds %d: %w",
			addr, n, len(buf), pkg.ErrBufferTooSmall)
	}
	copy(buf, ep.buf[:n])
	ep.clearComplete(r)
	ep.clearNAK(r)
	b.rearm(ep, n)
	debug.Record(debug.EpOut(ep.number()))
	return n, nil
}

// rearm primes an OUT endpoint again after n bytes were consumed. Data
// endpoints always re-prime; EP0 only while its data stage expects more.
func (b *BusAdapter) rearm(ep *endpoint, n int) {
	size := ep.maxPacketSize()
	if ep.number() == 0 {
		if n < size {
			b.ep0OutPending = 0
		} else {
			b.ep0OutPending = max(b.ep0OutPending-n, 0)
		}
		if b.ep0OutPending == 0 {
			return
		}
		size = min(size, b.ep0OutPending)
	}
	if err := ep.schedule(b.regs, size); err != nil {
		debug.Record(debug.EpError(ep.number(), hal.DirectionOut, errorCode(err)))
	}
}

// takeSetup consumes the SETUP packet on a control endpoint and prepares
// EP0 for the stage that follows it.
func (b *BusAdapter) takeSetup(ep *endpoint, buf []byte) (int, error) {
	if len(buf) < hal.SetupPacketSize {
		return 0, fmt.Errorf("setup needs %d bytes: %w", hal.SetupPacketSize, pkg.ErrBufferTooSmall)
	}
	r := b.regs
	w, ok := readSetup(r, ep.qh.Setup, b.cfg.SetupRetries)
	w1c(&r.ENDPTSETUPSTAT, ep.bit())
	if !ok {
		debug.Record(debug.Anomaly(ep.number(), hal.DirectionOut, debug.CodeSetupTorn))
		pkg.LogWarn(pkg.ComponentEndpoint, "setup torn", "ep", ep.addr, "retries", b.cfg.SetupRetries)
		return 0, fmt.Errorf("%s: %w", ep.addr, pkg.ErrSetupTorn)
	}

	// A new SETUP cancels whatever the previous control transfer left primed.
	n := ep.number()
	b.flush(endpointBit(n, hal.DirectionOut) | endpointBit(n, hal.DirectionIn))
	w1c(&r.ENDPTCOMPLETE, endpointBit(n, hal.DirectionOut))

	pkt := hal.SetupPacketFromWord(w)
	pkt.MarshalTo(buf)

	b.ep0OutPending = 0
	switch {
	case pkt.IsDeviceToHost():
		// status stage: the host answers the IN data with an OUT ZLP
		if err := ep.schedule(r, ep.maxPacketSize()); err != nil {
			debug.Record(debug.EpError(n, hal.DirectionOut, errorCode(err)))
		}
	case pkt.Length > 0:
		b.ep0OutPending = int(pkt.Length)
		if err := ep.schedule(r, min(ep.maxPacketSize(), b.ep0OutPending)); err != nil {
			debug.Record(debug.EpError(n, hal.DirectionOut, errorCode(err)))
		}
	}

	debug.Record(debug.Ep0OutSetup())
	return hal.SetupPacketSize, nil
}

// flush cancels the transfers primed on the endpoints in mask and waits
// for the controller to finish, so the TDs are the driver's again. A flush
// that does not finish is recorded as an anomaly.
func (b *BusAdapter) flush(mask uint32) {
	r := b.regs
	r.ENDPTFLUSH.SetBits(mask)
	if waitFlush(r, mask, flushSpins, b.idle) {
		return
	}
	n, dir := uint8(bits.TrailingZeros32(mask&endptRXMask)), hal.DirectionOut
	if mask&endptRXMask == 0 {
		n, dir = uint8(bits.TrailingZeros32(mask>>16)), hal.DirectionIn
	}
	debug.Record(debug.Anomaly(n, dir, debug.CodeFlushTimeout))
	pkg.LogWarn(pkg.ComponentEndpoint, "flush timed out",
		"mask", fmt.Sprintf("%#08x", mask), "pending", fmt.Sprintf("%#08x", r.ENDPTFLUSH.Read()))
}

// readSetup loads the setup buffer under the setup tripwire. The
// controller clears USBCMD.SUTW when a new SETUP lands, so a load that
// finishes with the tripwire still set is consistent. It gives up after
// tries attempts.
func readSetup(r *Registers, load func() uint64, tries int) (uint64, bool) {
	defer r.USBCMD.ClearBits(USBCMD_SUTW)
	for i := 0; i < tries; i++ {
		r.USBCMD.SetBits(USBCMD_SUTW)
		w := load()
		if r.USBCMD.HasBits(USBCMD_SUTW) {
			return w, true
		}
	}
	return 0, false
}

// SetStalled sets or clears the stall on an endpoint.
func (b *BusAdapter) SetStalled(addr hal.EndpointAddress, stalled bool) {
	ep, err := b.lookup(addr)
	if err != nil {
		pkg.LogWarn(pkg.ComponentEndpoint, "stall ignored", "ep", addr, "error", err)
		return
	}
	ep.setStalled(b.regs, stalled)
	pkg.LogDebug(pkg.ComponentEndpoint, "stall", "ep", addr, "stalled", stalled)
}

// IsStalled reports whether an endpoint is stalled. Unusable endpoints
// report false.
func (b *BusAdapter) IsStalled(addr hal.EndpointAddress) bool {
	ep, err := b.lookup(addr)
	if err != nil {
		return false
	}
	return ep.isStalled(b.regs)
}

// Suspend stops the PHY clock.
func (b *BusAdapter) Suspend() {
	b.regs.PORTSC1.SetBits(PORTSC1_PHCD)
	b.suspended = true
	pkg.LogInfo(pkg.ComponentBus, "suspended")
}

// Resume restarts the PHY clock and, if the port is still suspended,
// drives resume signaling.
func (b *BusAdapter) Resume() {
	r := b.regs
	r.PORTSC1.ClearBits(PORTSC1_PHCD)
	if r.PORTSC1.HasBits(PORTSC1_SUSP) {
		r.PORTSC1.SetBits(PORTSC1_FPR)
	}
	b.suspended = false
	pkg.LogInfo(pkg.ComponentBus, "resumed")
}

// Speed returns the speed the port negotiated.
func (b *BusAdapter) Speed() hal.Speed {
	switch b.regs.PORTSC1.ReadField(PORTSC1_PSPD) {
	case portSpeedFull:
		return hal.SpeedFull
	case portSpeedLow:
		return hal.SpeedLow
	case portSpeedHigh:
		return hal.SpeedHigh
	default:
		return hal.SpeedUnknown
	}
}

// Suspended reports whether the bus is suspended.
func (b *BusAdapter) Suspended() bool {
	return b.suspended
}
