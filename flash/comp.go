// Package flash models a serial NOR flash in the W25X family (W25X16,
// W25X32).
//
// The device is a byte-oriented state machine on the SPI bus. It decodes one
// command per chip-select session and answers one byte per exchange. Program
// data is staged in a 256-byte page buffer and only committed to the array
// when chip select deasserts, which is the sole transaction boundary the
// device knows about.
package flash

import (
	"log"

	"github.com/sarchlab/g233/mem"
	"github.com/sarchlab/g233/sim"
)

// Supported command opcodes.
const (
	CmdJEDECID      = 0x9F
	CmdReadStatus   = 0x05
	CmdWriteEnable  = 0x06
	CmdWriteDisable = 0x04
	CmdRead         = 0x03
	CmdPageProgram  = 0x02
	CmdSectorErase  = 0x20
)

// StatusWriteInProgress is the write-in-progress bit of the status register.
const StatusWriteInProgress = 0x01

// Geometry of the modeled parts.
const (
	SectorSize = 4096
	PageSize   = 256
)

// fillByte is what erased cells and out-of-range reads return.
const fillByte = 0xFF

// machineState enumerates the command interpreter states. writingSR and
// erasing are declared by the hardware documentation but no transition
// reaches them: the write-status-register command is not decoded, and
// sector erase completes synchronously while the address is still being
// consumed. They are kept so the state space matches the part.
type machineState int

const (
	stateIdle machineState = iota
	stateReadingCmd
	stateReadingID
	stateReadingData
	stateReadingSR
	stateWritingSR
	stateWritingData
	stateErasing
)

// HookPosCommand is triggered when an idle device decodes a command byte.
var HookPosCommand = &sim.HookPos{Name: "Flash Command"}

// HookPosPageCommit is triggered when a buffered page is written to the
// array on chip-select deassertion.
var HookPosPageCommit = &sim.HookPos{Name: "Flash Page Commit"}

// HookPosSectorErase is triggered when a sector is erased.
var HookPosSectorErase = &sim.HookPos{Name: "Flash Sector Erase"}

// A Command is the hook item at HookPosCommand.
type Command struct {
	Opcode byte
}

// A PageCommit is the hook item at HookPosPageCommit.
type PageCommit struct {
	Addr uint32
	Size int
}

// A SectorErase is the hook item at HookPosSectorErase. Addr is the aligned
// base of the erased sector.
type SectorErase struct {
	Addr uint32
}

// DeviceState holds the portion of the device that survives a snapshot. The
// command interpreter position, address accumulator, and page buffer are
// deliberately not part of it: a restore in the middle of a transaction
// loses the in-flight command context.
type DeviceState struct {
	StatusReg   uint8
	WriteEnable bool
}

// Comp is the flash device component.
type Comp struct {
	sim.HookableBase

	name   string
	logger *log.Logger

	// Storage backs the flash array. Untouched bytes read as 0xFF.
	Storage *mem.Storage

	size    uint64
	jedecID [3]byte

	dev DeviceState

	state     machineState
	cmd       byte
	addr      uint32
	addrBytes int
	dataPos   int
	pageBuf   [PageSize]byte
	pagePos   int
}

// Name returns the name of the device.
func (c *Comp) Name() string {
	return c.name
}

// Size returns the capacity of the flash array in bytes.
func (c *Comp) Size() uint64 {
	return c.size
}

// JEDECID returns the three identification bytes the device answers to the
// JEDEC ID command.
func (c *Comp) JEDECID() [3]byte {
	return c.jedecID
}

// Transfer exchanges one byte with the device, advancing the command
// interpreter by one step.
func (c *Comp) Transfer(tx byte) byte {
	var rx byte

	switch c.state {
	case stateIdle:
		c.decodeCommand(tx)

	case stateReadingID:
		if c.dataPos < len(c.jedecID) {
			rx = c.jedecID[c.dataPos]
			c.dataPos++
		} else {
			rx = fillByte
		}

	case stateReadingSR:
		rx = c.dev.StatusReg
		c.state = stateIdle

	case stateReadingCmd:
		c.addr = c.addr<<8 | uint32(tx)
		c.addrBytes++
		if c.addrBytes >= 3 {
			c.completeAddress()
		}

	case stateReadingData:
		if uint64(c.addr)+uint64(c.dataPos) < c.size {
			data, err := c.Storage.Read(uint64(c.addr)+uint64(c.dataPos), 1)
			if err != nil {
				c.logger.Printf("%s: array read failed: %v", c.name, err)
				rx = fillByte
			} else {
				rx = data[0]
			}
		} else {
			rx = fillByte
		}
		c.dataPos++

	case stateWritingData:
		if c.pagePos < PageSize {
			c.pageBuf[c.pagePos] = tx
			c.pagePos++
		}

	default:
		c.state = stateIdle
	}

	return rx
}

// decodeCommand handles a command byte received while idle. Unrecognized
// commands are silently ignored, and program/erase commands are dropped
// unless write enable was latched first.
func (c *Comp) decodeCommand(tx byte) {
	c.cmd = tx

	switch tx {
	case CmdJEDECID:
		c.state = stateReadingID
		c.dataPos = 0
	case CmdReadStatus:
		c.state = stateReadingSR
	case CmdWriteEnable:
		c.dev.WriteEnable = true
	case CmdWriteDisable:
		c.dev.WriteEnable = false
	case CmdRead:
		c.state = stateReadingCmd
		c.addr = 0
		c.addrBytes = 0
	case CmdPageProgram:
		if c.dev.WriteEnable {
			c.state = stateReadingCmd
			c.addr = 0
			c.addrBytes = 0
			c.pagePos = 0
		}
	case CmdSectorErase:
		if c.dev.WriteEnable {
			c.state = stateReadingCmd
			c.addr = 0
			c.addrBytes = 0
		}
	default:
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosCommand,
		Item:   Command{Opcode: tx},
	})
}

// completeAddress runs once the third address byte arrives. Reads and
// programs move on to their data phases; sector erase completes here, in the
// address phase, without a separate erasing state.
func (c *Comp) completeAddress() {
	switch c.cmd {
	case CmdRead:
		c.state = stateReadingData
		c.dataPos = 0
	case CmdPageProgram:
		c.state = stateWritingData
	case CmdSectorErase:
		sector := c.addr &^ (SectorSize - 1)
		if uint64(sector) < c.size {
			if err := c.Storage.EraseRange(uint64(sector), SectorSize); err != nil {
				c.logger.Printf("%s: sector erase failed: %v", c.name, err)
			}

			c.InvokeHook(sim.HookCtx{
				Domain: c,
				Pos:    HookPosSectorErase,
				Item:   SectorErase{Addr: sector},
			})
		}
		c.dev.WriteEnable = false
		c.state = stateIdle
	}
}

// NotifySignal consumes the chip-select input. Deassertion (the line going
// high) commits a pending page program and unconditionally aborts whatever
// else was in flight.
func (c *Comp) NotifySignal(s *sim.Signal, level bool) {
	if !level {
		return
	}

	if c.state == stateWritingData && c.pagePos > 0 {
		if uint64(c.addr)+uint64(c.pagePos) <= c.size {
			if err := c.Storage.Write(uint64(c.addr), c.pageBuf[:c.pagePos]); err != nil {
				c.logger.Printf("%s: page commit failed: %v", c.name, err)
			}

			c.InvokeHook(sim.HookCtx{
				Domain: c,
				Pos:    HookPosPageCommit,
				Item:   PageCommit{Addr: c.addr, Size: c.pagePos},
			})
		}
		c.dev.WriteEnable = false
	}

	c.state = stateIdle
	c.dataPos = 0
	c.pagePos = 0
	c.addr = 0
	c.addrBytes = 0
}

// Reset returns the device to its power-on state. The array content is
// preserved.
func (c *Comp) Reset() {
	c.state = stateIdle
	c.cmd = 0
	c.addr = 0
	c.addrBytes = 0
	c.dataPos = 0
	c.dev.StatusReg = 0
	c.dev.WriteEnable = false
	c.pagePos = 0
}

// State exposes the persistent device state for snapshotting.
func (c *Comp) State() any {
	return &c.dev
}

// AfterRestoreState discards any in-flight command context. Restoring in the
// middle of a chip-select session behaves like an unconditional deassertion
// with nothing pending.
func (c *Comp) AfterRestoreState() {
	c.state = stateIdle
	c.cmd = 0
	c.addr = 0
	c.addrBytes = 0
	c.dataPos = 0
	c.pagePos = 0
}

var _ sim.Peripheral = (*Comp)(nil)
var _ sim.SignalSink = (*Comp)(nil)
var _ sim.NamedHookable = (*Comp)(nil)
