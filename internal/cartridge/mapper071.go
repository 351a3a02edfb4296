package cartridge

// Mapper071 implements the Camerica/Codemasters board (mapper 71). It works
// like UxROM with the register at $C000-$FFFF; Fire Hawk additionally picks
// a single-screen nametable through $9000-$9FFF.
type Mapper071 struct {
	MirrorVertical bool
	SingleScreen   bool
	ScreenSelect   bool
	Bank           uint8
	PPUAddress     uint16
}

// NewMapper071 creates a new mapper 71
func NewMapper071(d *Data) *Mapper071 {
	return &Mapper071{MirrorVertical: d.Volatile.MirrorVertical}
}

func (m *Mapper071) a10(addr uint16) bool {
	if m.SingleScreen {
		return m.ScreenSelect
	}
	return mirrorA10(m.MirrorVertical, addr)
}

// MemoryCycleDump implements Mapper
func (m *Mapper071) MemoryCycleDump(d *Data, addr uint16) (uint8, bool) {
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
func (m *Mapper071) MemoryCycleRead(d *Data, addr uint16) (uint8, bool) {
	return m.MemoryCycleDump(d, addr)
}

// MemoryCycleWrite implements Mapper
func (m *Mapper071) MemoryCycleWrite(d *Data, addr uint16, value uint8) {
	switch {
	case addr >= 0xC000:
		m.Bank = value
	case addr >= 0x9000 && addr < 0xA000:
		m.SingleScreen = true
		m.ScreenSelect = value&0x10 != 0
	case addr >= 0x6000 && addr < 0x8000:
		prgRAMWrite(d, addr, value)
	}
}

// MemoryCycleNop implements Mapper
func (m *Mapper071) MemoryCycleNop() {}

// PPUMemoryCycleAddress implements Mapper
func (m *Mapper071) PPUMemoryCycleAddress(addr uint16) (bool, bool) {
	m.PPUAddress = addr
	return m.a10(addr), false
}

// PPUMemoryCycleRead implements Mapper
func (m *Mapper071) PPUMemoryCycleRead(d *Data) (uint8, bool) {
	if m.PPUAddress >= 0x2000 {
		return 0, false
	}
	return chrByte(d, uint32(m.PPUAddress))
}

// PPUMemoryCycleWrite implements Mapper
func (m *Mapper071) PPUMemoryCycleWrite(d *Data, value uint8) {
	if m.PPUAddress < 0x2000 {
		chrWrite(d, uint32(m.PPUAddress), value)
	}
}

// PPUPeekAddress implements Mapper
func (m *Mapper071) PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool) {
	if addr >= 0x2000 {
		return m.a10(addr), false, 0, false
	}
	v, ok := chrByte(d, uint32(addr))
	return m.a10(addr), false, v, ok
}

// IRQ implements Mapper
func (m *Mapper071) IRQ() bool { return false }

// ROMByteHack implements Mapper
func (m *Mapper071) ROMByteHack(d *Data, addr uint32, value uint8) {
	romByteHack(d, addr, value)
}

// CartridgeRegisters implements Mapper
func (m *Mapper071) CartridgeRegisters() []Register {
	return []Register{
		{Name: "Mapper", Value: 71},
		{Name: "PRG BANK", Value: m.Bank},
		{Name: "Single", Value: boolByte(m.SingleScreen)},
		{Name: "Screen", Value: boolByte(m.ScreenSelect)},
	}
}
