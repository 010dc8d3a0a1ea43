package ehci

import (
	"unsafe"

	"github.com/ardnew/usbd/pkg/vcell"
)

// Registers is the device-mode register block of the USB core.
//
// Field offsets match the controller's memory map. On the target the
// block is overlaid on the peripheral's base address. In tests it is
// ordinary memory, driven by a simulated controller.
type Registers struct {
	_              [0x140 / 4]uint32
	USBCMD         vcell.Cell[uint32] // 0x140 command
	USBSTS         vcell.Cell[uint32] // 0x144 status (write 1 to clear)
	USBINTR        vcell.Cell[uint32] // 0x148 interrupt enable
	FRINDEX        vcell.Cell[uint32] // 0x14C frame index
	_              uint32
	DEVICEADDR     vcell.Cell[uint32] // 0x154 device address
	ENDPTLISTADDR  vcell.Cell[uint32] // 0x158 queue head list base
	_              [7]uint32
	ENDPTNAK       vcell.Cell[uint32] // 0x178 NAK status (write 1 to clear)
	ENDPTNAKEN     vcell.Cell[uint32] // 0x17C NAK interrupt enable
	_              uint32
	PORTSC1        vcell.Cell[uint32] // 0x184 port status and control
	_              [7]uint32
	OTGSC          vcell.Cell[uint32] // 0x1A4 OTG status and control
	USBMODE        vcell.Cell[uint32] // 0x1A8 controller mode
	ENDPTSETUPSTAT vcell.Cell[uint32] // 0x1AC setup status (write 1 to clear)
	ENDPTPRIME     vcell.Cell[uint32] // 0x1B0 prime
	ENDPTFLUSH     vcell.Cell[uint32] // 0x1B4 flush
	ENDPTSTAT      vcell.Cell[uint32] // 0x1B8 primed and active
	ENDPTCOMPLETE  vcell.Cell[uint32] // 0x1BC complete (write 1 to clear)
	ENDPTCTRL      [NumEndpoints]vcell.Cell[uint32]
}

// NumEndpoints is the number of endpoint numbers the core implements.
const NumEndpoints = 8

// Register offsets are part of the hardware contract.
var (
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.USBCMD)-0x140]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.DEVICEADDR)-0x154]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.ENDPTNAK)-0x178]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.PORTSC1)-0x184]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.USBMODE)-0x1A8]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.ENDPTCOMPLETE)-0x1BC]
	_ = [1]struct{}{}[unsafe.Offsetof(Registers{}.ENDPTCTRL)-0x1C0]
)

// USBCMD bits.
const (
	USBCMD_RS    = 1 << 0  // Run/stop; attaches to the bus
	USBCMD_RST   = 1 << 1  // Controller reset
	USBCMD_SUTW  = 1 << 13 // Setup tripwire
	USBCMD_ATDTW = 1 << 14 // Add dTD tripwire
)

// USBCMD_ITC is the interrupt threshold control field.
var USBCMD_ITC = vcell.NewField[uint32](16, 8)

// USBSTS and USBINTR bits share positions.
const (
	USBSTS_UI   = 1 << 0  // USB interrupt: transfer complete or setup
	USBSTS_UEI  = 1 << 1  // USB error interrupt
	USBSTS_PCI  = 1 << 2  // Port change detect
	USBSTS_FRI  = 1 << 3  // Frame list rollover
	USBSTS_SEI  = 1 << 4  // System error
	USBSTS_URI  = 1 << 6  // USB reset received
	USBSTS_SRI  = 1 << 7  // Start of frame received
	USBSTS_SLI  = 1 << 8  // Device controller suspend
	USBSTS_HCH  = 1 << 12 // Controller halted
	USBSTS_NAKI = 1 << 16 // NAK interrupt
)

// pollMask selects the USBSTS bits Poll acts on.
const pollMask = USBSTS_UI | USBSTS_UEI | USBSTS_PCI | USBSTS_URI | USBSTS_SLI

// DEVICEADDR fields.
var (
	DEVICEADDR_USBADRA = vcell.Bit[uint32](24)        // Stage address until the next EP0 IN ACK
	DEVICEADDR_USBADR  = vcell.NewField[uint32](25, 7) // Device address
)

// PORTSC1 bits and fields.
const (
	PORTSC1_CCS  = 1 << 0  // Current connect status
	PORTSC1_FPR  = 1 << 6  // Force port resume
	PORTSC1_SUSP = 1 << 7  // Suspend
	PORTSC1_PR   = 1 << 8  // Port reset
	PORTSC1_HSP  = 1 << 9  // High-speed port
	PORTSC1_PHCD = 1 << 23 // PHY low power suspend
	PORTSC1_PFSC = 1 << 24 // Port force full speed
)

// PORTSC1_PSPD is the negotiated port speed.
var PORTSC1_PSPD = vcell.NewField[uint32](26, 2)

// PORTSC1_PSPD values.
const (
	portSpeedFull = 0
	portSpeedLow  = 1
	portSpeedHigh = 2
)

// USBMODE fields.
var USBMODE_CM = vcell.NewField[uint32](0, 2)

// USBMODE bits.
const (
	USBMODE_CM_DEVICE = 0b10
	USBMODE_ES        = 1 << 2 // Big-endian descriptors
	USBMODE_SLOM      = 1 << 3 // Setup lockout off; setup tripwire in use
	USBMODE_SDIS      = 1 << 4 // Stream disable
)

// ENDPTCTRL bits and fields. RX is the OUT half, TX the IN half.
const (
	ENDPTCTRL_RXS = 1 << 0  // RX stall
	ENDPTCTRL_RXR = 1 << 6  // RX data toggle reset
	ENDPTCTRL_RXE = 1 << 7  // RX enable
	ENDPTCTRL_TXS = 1 << 16 // TX stall
	ENDPTCTRL_TXR = 1 << 22 // TX data toggle reset
	ENDPTCTRL_TXE = 1 << 23 // TX enable

	endptCtrlRX = 0x0000FFFF
	endptCtrlTX = 0xFFFF0000
)

// ENDPTCTRL transfer type fields.
var (
	ENDPTCTRL_RXT = vcell.NewField[uint32](2, 2)
	ENDPTCTRL_TXT = vcell.NewField[uint32](18, 2)
)

// Endpoint bitmaps in ENDPTPRIME, ENDPTFLUSH, ENDPTSTAT, ENDPTCOMPLETE
// and ENDPTNAK: OUT (receive) endpoints in the low half, IN (transmit)
// endpoints in the high half.
const (
	endptRXMask = 0x0000FFFF
	endptTXMask = 0xFFFF0000
)
