// Package tracing records the observable activity of the SPI subsystem.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/rs/xid"

	"github.com/sarchlab/g233/datarecording"
	"github.com/sarchlab/g233/flash"
	"github.com/sarchlab/g233/sim"
	"github.com/sarchlab/g233/spi"
)

// Table names used by the BusTracer.
const (
	TransferTable  = "spi_transfers"
	RegAccessTable = "spi_reg_accesses"
	InterruptTable = "spi_interrupts"
	FlashOpTable   = "flash_ops"
)

// A TransferEntry records one byte exchange on the bus.
type TransferEntry struct {
	Session string
	Seq     uint64
	Comp    string
	TX      uint8
	RX      uint8
	SR      uint32
}

// A RegAccessEntry records one register read or write.
type RegAccessEntry struct {
	Session string
	Seq     uint64
	Comp    string
	Kind    string
	Offset  uint64
	Value   uint32
}

// An InterruptEntry records one interrupt re-evaluation.
type InterruptEntry struct {
	Session  string
	Seq      uint64
	Comp     string
	Asserted bool
	Count    uint64
}

// A FlashOpEntry records a decoded flash command, a page commit, or a
// sector erase.
type FlashOpEntry struct {
	Session string
	Seq     uint64
	Comp    string
	Op      string
	Opcode  uint8
	Addr    uint32
	Size    int
}

// A BusTracer is a hook that turns controller and flash activity into
// datarecording rows. One tracer can observe several components; rows share
// a session ID and a monotonic sequence number.
type BusTracer struct {
	recorder datarecording.DataRecorder
	session  string
	seq      uint64
}

// NewBusTracer creates a BusTracer writing into the given recorder and
// creates the tables it needs.
func NewBusTracer(recorder datarecording.DataRecorder) *BusTracer {
	t := &BusTracer{
		recorder: recorder,
		session:  xid.New().String(),
	}

	recorder.CreateTable(TransferTable, TransferEntry{})
	recorder.CreateTable(RegAccessTable, RegAccessEntry{})
	recorder.CreateTable(InterruptTable, InterruptEntry{})
	recorder.CreateTable(FlashOpTable, FlashOpEntry{})

	return t
}

// CollectTrace lets the tracer collect traces from a domain.
func CollectTrace(domain sim.NamedHookable, tracer *BusTracer) {
	for _, hook := range domain.Hooks() {
		h, ok := hook.(*BusTracer)
		if ok && h == tracer {
			panic(fmt.Sprintf("domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

// Func converts hook invocations into trace rows.
func (t *BusTracer) Func(ctx sim.HookCtx) {
	name := ""
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	t.seq++

	switch ctx.Pos {
	case spi.HookPosTransfer:
		item := ctx.Item.(spi.Transfer)
		t.recorder.InsertData(TransferTable, TransferEntry{
			Session: t.session,
			Seq:     t.seq,
			Comp:    name,
			TX:      item.TX,
			RX:      item.RX,
			SR:      item.SR,
		})

	case spi.HookPosRegRead, spi.HookPosRegWrite:
		kind := "read"
		if ctx.Pos == spi.HookPosRegWrite {
			kind = "write"
		}

		item := ctx.Item.(spi.RegAccess)
		t.recorder.InsertData(RegAccessTable, RegAccessEntry{
			Session: t.session,
			Seq:     t.seq,
			Comp:    name,
			Kind:    kind,
			Offset:  item.Offset,
			Value:   item.Value,
		})

	case spi.HookPosInterrupt:
		item := ctx.Item.(spi.Interrupt)
		t.recorder.InsertData(InterruptTable, InterruptEntry{
			Session:  t.session,
			Seq:      t.seq,
			Comp:     name,
			Asserted: item.Asserted,
			Count:    item.Count,
		})

	case flash.HookPosCommand:
		item := ctx.Item.(flash.Command)
		t.recorder.InsertData(FlashOpTable, FlashOpEntry{
			Session: t.session,
			Seq:     t.seq,
			Comp:    name,
			Op:      "command",
			Opcode:  item.Opcode,
		})

	case flash.HookPosPageCommit:
		item := ctx.Item.(flash.PageCommit)
		t.recorder.InsertData(FlashOpTable, FlashOpEntry{
			Session: t.session,
			Seq:     t.seq,
			Comp:    name,
			Op:      "page_commit",
			Addr:    item.Addr,
			Size:    item.Size,
		})

	case flash.HookPosSectorErase:
		item := ctx.Item.(flash.SectorErase)
		t.recorder.InsertData(FlashOpTable, FlashOpEntry{
			Session: t.session,
			Seq:     t.seq,
			Comp:    name,
			Op:      "sector_erase",
			Addr:    item.Addr,
			Size:    flash.SectorSize,
		})
	}
}
