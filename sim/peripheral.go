package sim

// A Peripheral is a device attached to a serial bus. The bus master hands the
// peripheral one byte and receives one byte back in the same call. Transaction
// boundaries are not part of this interface; they are expressed through a
// chip-select Signal.
type Peripheral interface {
	Named

	// Transfer exchanges a single byte with the peripheral.
	Transfer(tx byte) (rx byte)
}
