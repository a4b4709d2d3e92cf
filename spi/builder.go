package spi

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/g233/sim"
)

// A Builder can build SPI controllers.
type Builder struct {
	peripheral    sim.Peripheral
	numChipSelect int
	logger        *log.Logger
}

// MakeBuilder returns a Builder with default parameters. The CSCTRL register
// decodes two chip-select channels; the hardware routes up to four lines.
func MakeBuilder() Builder {
	return Builder{
		numChipSelect: 2,
	}
}

// WithPeripheral sets the peripheral attached to the controller's bus.
func (b Builder) WithPeripheral(p sim.Peripheral) Builder {
	b.peripheral = p
	return b
}

// WithNumChipSelect sets the number of chip-select output lines, from 1 to 4.
func (b Builder) WithNumChipSelect(n int) Builder {
	b.numChipSelect = n
	return b
}

// WithLogger sets the logger that receives guest programming errors.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build builds a new controller in its power-on state.
func (b Builder) Build(name string) *Comp {
	if b.peripheral == nil {
		panic("spi: a controller must have a peripheral attached")
	}

	if b.numChipSelect < 1 || b.numChipSelect > 4 {
		panic("spi: chip-select line count must be between 1 and 4")
	}

	c := &Comp{
		name:       name,
		peripheral: b.peripheral,
		logger:     b.logger,
	}

	if c.logger == nil {
		c.logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	c.irq = sim.NewSignal(name+".IRQ", false)

	c.csLines = make([]*sim.Signal, b.numChipSelect)
	for n := range c.csLines {
		// Chip-select lines idle at their inactive, high level.
		c.csLines[n] = sim.NewSignal(fmt.Sprintf("%s.CS%d", name, n), true)
	}

	c.Reset()

	return c
}
