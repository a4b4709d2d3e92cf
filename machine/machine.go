// Package machine assembles the SPI controller and the flash device into a
// ready-to-use subsystem. The machine owns the wiring: chip-select line 0 of
// the controller drives the flash's chip-select input, both devices are
// registered for snapshotting, and tracing and monitoring attach here.
package machine

import (
	"io"
	"log"

	"github.com/sarchlab/g233/datarecording"
	"github.com/sarchlab/g233/flash"
	"github.com/sarchlab/g233/monitoring"
	"github.com/sarchlab/g233/sim"
	"github.com/sarchlab/g233/spi"
	"github.com/sarchlab/g233/state"
	"github.com/sarchlab/g233/tracing"
)

// A Machine is the assembled SPI subsystem.
type Machine struct {
	Controller *spi.Comp
	Flash      *flash.Comp

	states *state.Manager
}

// A Builder can build machines.
type Builder struct {
	flashSize     uint64
	numChipSelect int
	logger        *log.Logger
	recorder      datarecording.DataRecorder
	monitor       *monitoring.Monitor
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		flashSize:     2 * 1024 * 1024,
		numChipSelect: 2,
	}
}

// WithFlashSize sets the capacity of the attached flash in bytes.
func (b Builder) WithFlashSize(size uint64) Builder {
	b.flashSize = size
	return b
}

// WithNumChipSelect sets the number of chip-select lines on the controller.
func (b Builder) WithNumChipSelect(n int) Builder {
	b.numChipSelect = n
	return b
}

// WithLogger sets the logger shared by the devices.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithDataRecorder attaches a bus tracer writing into the given recorder.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithMonitor registers the devices with the given monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// Build builds a machine with both devices in their power-on state.
func (b Builder) Build(name string) *Machine {
	flashDev := flash.MakeBuilder().
		WithSize(b.flashSize).
		WithLogger(b.logger).
		Build(name + ".Flash")

	controller := spi.MakeBuilder().
		WithPeripheral(flashDev).
		WithNumChipSelect(b.numChipSelect).
		WithLogger(b.logger).
		Build(name + ".SPI")

	controller.ChipSelect(0).Connect(flashDev)

	m := &Machine{
		Controller: controller,
		Flash:      flashDev,
		states:     state.NewManager(),
	}

	mustRegister(m.states.Register(controller))
	mustRegister(m.states.Register(flashDev))

	if b.recorder != nil {
		tracer := tracing.NewBusTracer(b.recorder)
		tracing.CollectTrace(controller, tracer)
		tracing.CollectTrace(flashDev, tracer)
	}

	if b.monitor != nil {
		b.monitor.RegisterComponent(controller)
		b.monitor.RegisterComponent(flashDev)
	}

	return m
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// Read performs a guest register read on the controller.
func (m *Machine) Read(offset uint64, size int) uint32 {
	return m.Controller.Read(offset, size)
}

// Write performs a guest register write on the controller.
func (m *Machine) Write(offset uint64, size int, value uint32) {
	m.Controller.Write(offset, size, value)
}

// IRQ returns the controller's interrupt output line.
func (m *Machine) IRQ() *sim.Signal {
	return m.Controller.IRQ()
}

// Reset resets both devices to their power-on state. The flash array
// content is preserved.
func (m *Machine) Reset() {
	m.Controller.Reset()
	m.Flash.Reset()
}

// Save writes a snapshot of the persistent device state.
func (m *Machine) Save(w io.Writer) error {
	return m.states.Save(w)
}

// Restore overwrites the persistent device state from a snapshot and
// re-derives all transient state.
func (m *Machine) Restore(r io.Reader) error {
	return m.states.Restore(r)
}
