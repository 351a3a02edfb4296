package cartridge

// Mapper003 implements CNROM (mapper 3): fixed PRG like NROM and a
// switchable 8KB CHR bank.
type Mapper003 struct {
	MirrorVertical bool
	Bank           uint8
	PPUAddress     uint16
}

// NewMapper003 creates a new CNROM mapper
func NewMapper003(d *Data) *Mapper003 {
	return &Mapper003{MirrorVertical: d.Volatile.MirrorVertical}
}

func (m *Mapper003) chrOffset(addr uint16) uint32 {
	return uint32(m.Bank)<<13 | uint32(addr&0x1FFF)
}

// MemoryCycleDump implements Mapper
func (m *Mapper003) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return prgByte(d, uint32(addr&0x7FFF)), true
	case addr >= 0x6000:
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper003) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper003) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	switch {
	case addr >= 0x8000:
		m.Bank = value
	case addr >= 0x6000:
		prgRAMWrite(d, addr, value)
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper003) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper003) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return mirrorA10(m.MirrorVertical, addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper003) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, m.chrOffset(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper003) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, m.chrOffset(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper003) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	a10 := mirrorA10(m.MirrorVertical, addr)
	if addr >= 0x2000 {
		return a10, false, 0, false
	}
	v, ok := chrByte(d, m.chrOffset(addr))
	return a10, false, v, ok
}

// IRQ implements Mapper
func (m *Mapper003) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper003) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper003) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Mapper", Value: 3},
		{Name: "Mirror", Value: boolByte(m.MirrorVertical)},
		{Name: "PPU BANK", Value: m.Bank},
	}
}
