package cartridge

// NewTestData builds cartridge data directly from rom buffers, for mapper
// tests that do not need a ROM image.
func NewTestData(prg, chr []uint8, ramSize int) *Data {
	d := &Data{}
	d.Nonvolatile.PRGROM = prg
	if len(chr) > 0 {
		d.Nonvolatile.CHRROM = chr
	} else {
		d.Volatile.CHRRAM = make([]uint8, 8192)
	}
	d.Volatile.PRGRAM = NewStorage(make([]uint8, ramSize))
	padPowerOfTwo(d)
	return d
}

// PatternedROM returns size bytes where every byte holds its 1KB block
// number mixed with its offset, so bank switching mistakes show up.
func PatternedROM(size int) []uint8 {
	b := make([]uint8, size)
	for i := range b {
		b[i] = uint8(i>>10) ^ uint8(i*7)
	}
	return b
}

// NewTestMapper creates a mapper for the given number against d
func NewTestMapper(id uint16, d *Data) (Mapper, error) {
	return createMapper(id, d)
}
