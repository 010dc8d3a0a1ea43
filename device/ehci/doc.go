// Package ehci drives the EHCI-style USB device controller found in NXP
// i.MX RT parts (the ChipIdea core) and exposes it as a [hal.Bus].
//
// The controller moves data by DMA through two structures in ordinary
// memory: a list of queue heads ([QH]), one per endpoint and direction,
// and the transfer descriptors ([TD]) they execute. Both are built from
// [vcell.Cell] words and laid out exactly as the hardware reads them.
//
// # Setup
//
// A driver is assembled from four owned parts:
//
//	inst := ehci.USB1()              // exclusive register access
//	state := ehci.NewEndpointState() // aligned QH and TD tables
//	mem := ehci.NewMemory(4096)      // endpoint buffer arena
//
//	bus, err := ehci.New(inst, mem, state, ehci.DefaultConfig())
//	if err != nil {
//	    // invalid configuration
//	}
//
// After allocating endpoints, [BusAdapter.Enable] attaches the device.
// The device stack then calls [BusAdapter.Poll] in its main loop.
//
// # Handoff
//
// A TD belongs to software until its endpoint is primed and to the
// controller until the endpoint's completion bit is seen. Descriptor
// writes are fenced before the prime, so the controller never fetches a
// half written TD.
//
// Off target the register block is plain memory. The ehcisim package
// plays the controller and a host against it.
package ehci
