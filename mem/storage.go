package mem

import (
	"errors"
	"fmt"
)

// A Storage keeps the data of a simulated memory array.
//
// The storage manages its content in fixed-size units and only allocates a
// unit when it is first written. Units that have never been written read back
// as the fill byte, which lets a large erased flash array cost close to
// nothing until data lands in it. The unit size equals the 4-KiB erase
// sector of the flash parts modeled in this repository.
type Storage struct {
	unitSize uint64
	capacity uint64
	fill     byte
	data     map[uint64][]byte
}

// UnitSize is the allocation and erase granularity of a Storage.
const UnitSize = 4096

// NewStorage creates a storage object with the specified capacity. Untouched
// bytes read back as zero.
func NewStorage(capacity uint64) *Storage {
	return NewFilledStorage(capacity, 0x00)
}

// NewFilledStorage creates a storage object whose untouched bytes read back
// as the given fill byte. Flash arrays use 0xFF, the erased state.
func NewFilledStorage(capacity uint64, fill byte) *Storage {
	s := new(Storage)

	s.unitSize = UnitSize
	s.capacity = capacity
	s.fill = fill
	s.data = make(map[uint64][]byte)

	return s
}

// Capacity returns the total number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) createOrGetUnit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		for i := range unit {
			unit[i] = s.fill
		}
		s.data[baseAddr] = unit
	}
	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr
	return
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if address+length > s.capacity {
		return nil, errors.New("accessing address beyond the storage capacity")
	}

	res := make([]byte, length)
	dataOffset := uint64(0)
	currAddr := address

	for currAddr < address+length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenInUnit := baseAddr + s.unitSize - currAddr
		lenToRead := length - dataOffset
		if lenToRead > lenInUnit {
			lenToRead = lenInUnit
		}

		unit, allocated := s.data[baseAddr]
		if allocated {
			copy(res[dataOffset:dataOffset+lenToRead],
				unit[inUnitAddr:inUnitAddr+lenToRead])
		} else {
			for i := dataOffset; i < dataOffset+lenToRead; i++ {
				res[i] = s.fill
			}
		}

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	if address+uint64(len(data)) > s.capacity {
		return errors.New("accessing address beyond the storage capacity")
	}

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit := s.createOrGetUnit(currAddr)
		_, inUnitAddr := s.parseAddress(currAddr)

		lenInUnit := s.unitSize - inUnitAddr
		lenToWrite := uint64(len(data)) - dataOffset
		if lenToWrite > lenInUnit {
			lenToWrite = lenInUnit
		}

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])

		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

// EraseRange restores whole units to the fill byte. Both address and size
// must be aligned to the unit size, and the range must fall within the
// capacity. Erased units are released back to the allocator.
func (s *Storage) EraseRange(address, size uint64) error {
	if address%s.unitSize != 0 || size%s.unitSize != 0 {
		return fmt.Errorf("erase range [0x%x, 0x%x) is not unit aligned",
			address, address+size)
	}

	if address+size > s.capacity {
		return errors.New("accessing address beyond the storage capacity")
	}

	for addr := address; addr < address+size; addr += s.unitSize {
		delete(s.data, addr)
	}

	return nil
}
