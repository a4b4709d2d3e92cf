package main

import (
	"github.com/sarchlab/g233/flash"
	"github.com/sarchlab/g233/machine"
	"github.com/sarchlab/g233/spi"
)

// driver issues flash commands the way a guest driver would, one register
// access at a time.
type driver struct {
	m *machine.Machine
}

func (d driver) selectFlash() {
	d.m.Write(spi.RegCSCtrl, 4, 0x11)
}

func (d driver) deselectFlash() {
	d.m.Write(spi.RegCSCtrl, 4, 0x01)
}

func (d driver) xfer(b byte) byte {
	d.m.Write(spi.RegDR, 4, uint32(b))
	return byte(d.m.Read(spi.RegDR, 4))
}

func (d driver) sendAddr(addr uint32) {
	d.xfer(byte(addr >> 16))
	d.xfer(byte(addr >> 8))
	d.xfer(byte(addr))
}

func (d driver) jedecID() [3]byte {
	d.selectFlash()
	d.xfer(flash.CmdJEDECID)
	id := [3]byte{d.xfer(0), d.xfer(0), d.xfer(0)}
	d.deselectFlash()

	return id
}

func (d driver) writeEnable() {
	d.selectFlash()
	d.xfer(flash.CmdWriteEnable)
	d.deselectFlash()
}

func (d driver) sectorErase(addr uint32) {
	d.writeEnable()

	d.selectFlash()
	d.xfer(flash.CmdSectorErase)
	d.sendAddr(addr)
	d.deselectFlash()
}

// pageProgram writes data at addr. The caller must keep the range inside a
// single 256-byte page.
func (d driver) pageProgram(addr uint32, data []byte) {
	d.writeEnable()

	d.selectFlash()
	d.xfer(flash.CmdPageProgram)
	d.sendAddr(addr)
	for _, b := range data {
		d.xfer(b)
	}
	d.deselectFlash()
}

func (d driver) read(addr uint32, n int) []byte {
	data := make([]byte, n)

	d.selectFlash()
	d.xfer(flash.CmdRead)
	d.sendAddr(addr)
	for i := range data {
		data[i] = d.xfer(0x00)
	}
	d.deselectFlash()

	return data
}
