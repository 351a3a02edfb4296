package cartridge

// Mapper002 implements UxROM (mapper 2): a switchable 16KB bank at $8000
// and the last bank fixed at $C000.
type Mapper002 struct {
	MirrorVertical bool
	Bank           uint8
	PPUAddress     uint16
}

// NewMapper002 creates a new UxROM mapper
func NewMapper002(d *Data) *Mapper002 {
	return &Mapper002{MirrorVertical: d.Volatile.MirrorVertical}
}

// MemoryCycleDump implements Mapper
func (m *Mapper002) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
	switch {
	case addr >= 0xC000:
		last := uint32(len(d.Nonvolatile.PRGROM)/0x4000) - 1
		return prgByte(d, last<<14|uint32(addr&0x3FFF)), true
	case addr >= 0x8000:
		return prgByte(d, uint32(m.Bank)<<14|uint32(addr&0x3FFF)), true
	case addr >= 0x6000:
		return prgRAMRead(d, addr)
	}
	return 0, false
}

// MemoryCycleRead implements Mapper
func (m *Mapper002) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper002) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	switch {
	case addr >= 0x8000:
		m.Bank = value
	case addr >= 0x6000:
		prgRAMWrite(d, addr, value)
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper002) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper002) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return mirrorA10(m.MirrorVertical, addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper002) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, uint32(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper002) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, uint32(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper002) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	a10 := mirrorA10(m.MirrorVertical, addr)
	if addr >= 0x2000 {
		return a10, false, 0, false
	}
	v, ok := chrByte(d, uint32(addr))
	return a10, false, v, ok
}

// IRQ implements Mapper
func (m *Mapper002) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper002) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper002) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Mapper", Value: 2},
		{Name: "Mirror", Value: boolByte(m.MirrorVertical)},
		{Name: "PRG BANK", Value: m.Bank},
	}
}
