package flash

import (
	"log"
	"math/bits"
	"os"

	"github.com/sarchlab/g233/mem"
)

// A Builder can build flash devices.
type Builder struct {
	size    uint64
	storage *mem.Storage
	logger  *log.Logger
}

// MakeBuilder returns a Builder with default parameters, modeling a 2-MiB
// W25X16.
func MakeBuilder() Builder {
	return Builder{
		size: 2 * 1024 * 1024,
	}
}

// WithSize sets the capacity of the flash array in bytes. The size must be a
// power of two and a multiple of the sector size.
func (b Builder) WithSize(size uint64) Builder {
	b.size = size
	return b
}

// WithStorage injects a backing storage instead of allocating a fresh erased
// one. The storage must at least cover the configured size.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithLogger sets the logger of the device.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build builds a new flash device with an erased array.
func (b Builder) Build(name string) *Comp {
	if b.size == 0 || b.size&(b.size-1) != 0 || b.size%SectorSize != 0 {
		panic("flash: size must be a power of two no smaller than a sector")
	}

	c := &Comp{
		name:    name,
		size:    b.size,
		logger:  b.logger,
		jedecID: jedecID(b.size),
	}

	if c.logger == nil {
		c.logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	if b.storage == nil {
		c.Storage = mem.NewFilledStorage(b.size, fillByte)
	} else {
		if b.storage.Capacity() < b.size {
			panic("flash: injected storage is smaller than the device")
		}
		c.Storage = b.storage
	}

	c.Reset()

	return c
}

// jedecID derives the identification bytes from the array size: Winbond
// manufacturer, W25X memory type, and the capacity code, which for this
// family is log2 of the size in bytes (0x15 for 2 MiB, 0x16 for 4 MiB).
func jedecID(size uint64) [3]byte {
	return [3]byte{0xEF, 0x30, byte(bits.Len64(size) - 1)}
}
