// Package spi models the G233 memory-mapped SPI controller.
//
// The controller owns four 32-bit control/status registers and a chip-select
// control register. A write to the data register performs exactly one
// synchronous byte exchange with the attached peripheral; the received byte
// is latched and exposed through the same register. Interrupt state is
// re-derived after every mutating register access.
package spi

import (
	"log"

	"github.com/sarchlab/g233/sim"
)

// Register offsets within the controller's MMIO window.
const (
	RegCR1    = 0x00
	RegCR2    = 0x04
	RegSR     = 0x08
	RegDR     = 0x0C
	RegCSCtrl = 0x10
)

// CR1 bits.
const (
	CR1Enable = 1 << 6 // SPE, gates data-register transfers
	CR1Master = 1 << 2 // MSTR, stored but not interpreted
)

// CR2 interrupt-enable bits.
const (
	CR2RxNotEmptyIE = 1 << 6
	CR2ErrorIE      = 1 << 5
	CR2TxEmptyIE    = 1 << 7
)

// SR bits.
const (
	SRRxNotEmpty = 1 << 0
	SRTxEmpty    = 1 << 1
	SRUnderrun   = 1 << 2
	SROverrun    = 1 << 3
	SRBusy       = 1 << 7
)

// srResetValue has only TX-empty asserted.
const srResetValue = SRTxEmpty

// AccessSize is the only register access width the controller supports.
const AccessSize = 4

// HookPosRegRead is triggered after a register read completes.
var HookPosRegRead = &sim.HookPos{Name: "SPI Reg Read"}

// HookPosRegWrite is triggered after a register write completes.
var HookPosRegWrite = &sim.HookPos{Name: "SPI Reg Write"}

// HookPosTransfer is triggered after a byte exchange with the peripheral.
var HookPosTransfer = &sim.HookPos{Name: "SPI Transfer"}

// HookPosInterrupt is triggered whenever interrupt state is re-evaluated.
var HookPosInterrupt = &sim.HookPos{Name: "SPI Interrupt"}

// A RegAccess describes one register read or write, delivered as the hook
// item at HookPosRegRead and HookPosRegWrite.
type RegAccess struct {
	Offset uint64
	Value  uint32
}

// A Transfer describes one completed byte exchange, delivered as the hook
// item at HookPosTransfer.
type Transfer struct {
	TX byte
	RX byte
	SR uint32
}

// An Interrupt describes the interrupt state after a re-evaluation, delivered
// as the hook item at HookPosInterrupt.
type Interrupt struct {
	Asserted bool
	Count    uint64
}

// RegisterFile holds the guest-visible registers. These are the fields that
// survive a snapshot; everything else on the component is re-derived or
// defaulted on restore.
type RegisterFile struct {
	CR1    uint32
	CR2    uint32
	SR     uint32
	DRTx   uint32
	DRRx   uint32
	CSCtrl uint32
}

// Comp is the SPI controller component.
type Comp struct {
	sim.HookableBase

	name   string
	logger *log.Logger

	regs       RegisterFile
	prevCSCtrl uint32

	// rxFIFOHasData tracks whether the last received byte has been consumed.
	// It moves in lockstep with SR.RXNE, but overrun detection is gated on
	// this flag rather than on the status bit.
	rxFIFOHasData  bool
	interruptCount uint64

	peripheral sim.Peripheral
	irq        *sim.Signal
	csLines    []*sim.Signal
}

// Name returns the name of the controller.
func (c *Comp) Name() string {
	return c.name
}

// IRQ returns the interrupt output line of the controller.
func (c *Comp) IRQ() *sim.Signal {
	return c.irq
}

// ChipSelect returns the n-th chip-select output line. Chip-select lines are
// active low.
func (c *Comp) ChipSelect(n int) *sim.Signal {
	return c.csLines[n]
}

// InterruptCount returns the number of interrupt assertions since the last
// reset. The counter is diagnostic only and is not guest visible.
func (c *Comp) InterruptCount() uint64 {
	return c.interruptCount
}

// interruptAsserted derives the interrupt level from the current CR2 and SR
// values. Keeping the derivation pure lets every mutation site re-run the
// same evaluation.
func interruptAsserted(cr2, sr uint32) bool {
	if cr2&CR2RxNotEmptyIE != 0 && sr&SRRxNotEmpty != 0 {
		return true
	}

	if cr2&CR2TxEmptyIE != 0 && sr&SRTxEmpty != 0 {
		return true
	}

	if cr2&CR2ErrorIE != 0 && sr&(SRUnderrun|SROverrun) != 0 {
		return true
	}

	return false
}

// updateInterrupt re-derives the interrupt line level and drives it. Each
// evaluation that finds the line asserted increments the diagnostic counter,
// even when the line was already asserted.
func (c *Comp) updateInterrupt() {
	asserted := interruptAsserted(c.regs.CR2, c.regs.SR)

	if asserted {
		c.interruptCount++
	}

	c.irq.Set(asserted)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosInterrupt,
		Item:   Interrupt{Asserted: asserted, Count: c.interruptCount},
	})
}

// Read performs a register read of the given size at the given offset.
// Only 4-byte accesses are architecturally valid; other sizes are a guest
// programming error and are logged, not faulted. Reads of an out-of-range
// offset return 0.
func (c *Comp) Read(offset uint64, size int) uint32 {
	if size != AccessSize {
		c.logger.Printf("%s: invalid read size %d at offset 0x%x",
			c.name, size, offset)
	}

	var ret uint32

	switch offset {
	case RegCR1:
		ret = c.regs.CR1
	case RegCR2:
		ret = c.regs.CR2
	case RegSR:
		ret = c.regs.SR
	case RegDR:
		ret = c.regs.DRRx
		c.regs.SR &^= SRRxNotEmpty
		c.rxFIFOHasData = false
		c.updateInterrupt()
	case RegCSCtrl:
		ret = c.regs.CSCtrl
	default:
		c.logger.Printf("%s: read of bad offset 0x%x", c.name, offset)
		return 0
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosRegRead,
		Item:   RegAccess{Offset: offset, Value: ret},
	})

	return ret
}

// Write performs a register write of the given size at the given offset.
// Writes to an out-of-range offset are dropped.
func (c *Comp) Write(offset uint64, size int, value uint32) {
	if size != AccessSize {
		c.logger.Printf("%s: invalid write size %d at offset 0x%x",
			c.name, size, offset)
	}

	switch offset {
	case RegCR1:
		c.regs.CR1 = value
	case RegCR2:
		c.regs.CR2 = value
		c.updateInterrupt()
	case RegSR:
		// Only the sticky error flags are clearable from the guest.
		c.regs.SR &^= value & (SRUnderrun | SROverrun)
		c.updateInterrupt()
	case RegDR:
		c.writeDataRegister(value)
	case RegCSCtrl:
		c.writeChipSelectControl(value)
	default:
		c.logger.Printf("%s: write of bad offset 0x%x", c.name, offset)
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosRegWrite,
		Item:   RegAccess{Offset: offset, Value: value},
	})
}

// writeDataRegister performs one synchronous byte exchange with the attached
// peripheral. The write is silently dropped when the controller is disabled.
func (c *Comp) writeDataRegister(value uint32) {
	if c.regs.CR1&CR1Enable == 0 {
		return
	}

	// Overrun is sampled before the exchange: it reflects whether the
	// previous received byte was never read.
	overrun := c.rxFIFOHasData && c.regs.SR&SRRxNotEmpty != 0

	c.regs.DRTx = value & 0xFF
	c.regs.SR &^= SRTxEmpty
	c.regs.SR |= SRBusy

	rx := c.peripheral.Transfer(byte(c.regs.DRTx))

	if overrun {
		c.regs.SR |= SROverrun
	}

	c.regs.DRRx = uint32(rx)
	c.regs.SR |= SRTxEmpty | SRRxNotEmpty
	c.regs.SR &^= SRBusy
	c.rxFIFOHasData = true

	c.updateInterrupt()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTransfer,
		Item:   Transfer{TX: byte(c.regs.DRTx), RX: rx, SR: c.regs.SR},
	})
}

// writeChipSelectControl latches the chip-select control register and drives
// the chip-select lines. Line n is active only when both its enable bit
// (bit n) and its active bit (bit n+4) are set. Lines are active low.
func (c *Comp) writeChipSelectControl(value uint32) {
	c.prevCSCtrl = c.regs.CSCtrl
	c.regs.CSCtrl = value

	for n, line := range c.csLines {
		mask := uint32(0x11) << n
		active := value&mask == mask
		line.Set(!active)
	}
}

// Reset returns the controller to its power-on state. All chip-select lines
// are driven to their inactive (high) level and the interrupt output is
// deasserted.
func (c *Comp) Reset() {
	c.regs.CR1 = 0
	c.regs.CR2 = 0
	c.regs.SR = srResetValue
	c.regs.DRTx = 0
	c.regs.DRRx = 0
	c.regs.CSCtrl = 0
	c.prevCSCtrl = 0
	c.rxFIFOHasData = false
	c.interruptCount = 0

	for _, line := range c.csLines {
		line.Set(true)
	}

	c.irq.Set(false)
}

// State exposes the register file for snapshotting.
func (c *Comp) State() any {
	return &c.regs
}

// AfterRestoreState re-derives the transient state from the restored
// registers. The unread-data flag follows SR.RXNE, the diagnostic counter
// and the chip-select shadow restart from zero, and the output lines are
// re-driven from the restored register values.
func (c *Comp) AfterRestoreState() {
	c.rxFIFOHasData = c.regs.SR&SRRxNotEmpty != 0
	c.interruptCount = 0
	c.prevCSCtrl = 0

	for n, line := range c.csLines {
		mask := uint32(0x11) << n
		active := c.regs.CSCtrl&mask == mask
		line.Set(!active)
	}

	c.irq.Set(interruptAsserted(c.regs.CR2, c.regs.SR))
}

var _ sim.NamedHookable = (*Comp)(nil)
