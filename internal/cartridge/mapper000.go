package cartridge

// Mapper000 implements NROM (mapper 0)
// NROM is the simplest mapper with no bank switching capabilities.
// It supports:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill 32KB address space)
// - 8KB CHR ROM or CHR RAM
// - PRG RAM at 0x6000-0x7FFF (optionally battery-backed)
type Mapper000 struct {
	MirrorVertical bool
	PPUAddress     uint16
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(d *Data) *Mapper000 {
	return &Mapper000{MirrorVertical: d.Volatile.MirrorVertical}
}

// MemoryCycleDump implements Mapper
func (m *Mapper000) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return prgByte(d, uint32(addr&0x7FFF)), true
	case addr >= 0x6000:
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper000) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper000) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		prgRAMWrite(d, addr, value)
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper000) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper000) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return mirrorA10(m.MirrorVertical, addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper000) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, uint32(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper000) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, uint32(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper000) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	a10 := mirrorA10(m.MirrorVertical, addr)
	if addr >= 0x2000 {
		return a10, false, 0, false
	}
	v, ok := chrByte(d, uint32(addr))
	return a10, false, v, ok
}

// IRQ implements Mapper
func (m *Mapper000) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper000) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper000) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Mapper", Value: 0},
		{Name: "Mirror", Value: boolByte(m.MirrorVertical)},
	}
}
