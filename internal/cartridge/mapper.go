package cartridge

import (
	"encoding/gob"
	"fmt"
)

// Mapper translates cpu and ppu bus cycles into offsets within the
// cartridge data. A mapper holds only its own registers; the bytes it
// addresses are always borrowed from Data for the duration of a call.
type Mapper interface {
	// MemoryCycleDump reads without side effects
	MemoryCycleDump(d *Data, addr uint16) (uint8, bool)
	// MemoryCycleRead runs a cpu read cycle
	MemoryCycleRead(d *Data, addr uint16) (uint8, bool)
	// MemoryCycleWrite runs a cpu write cycle
	MemoryCycleWrite(d *Data, addr uint16, value uint8)
	// MemoryCycleNop runs a cpu cycle that does not address the cartridge
	MemoryCycleNop()
	// PPUMemoryCycleAddress latches the ppu address. It returns A10 for the
	// console VRAM and true when the cartridge disables that VRAM.
	PPUMemoryCycleAddress(addr uint16) (bool, bool)
	// PPUMemoryCycleRead completes a ppu read at the latched address
	PPUMemoryCycleRead(d *Data) (uint8, bool)
	// PPUMemoryCycleWrite completes a ppu write at the latched address
	PPUMemoryCycleWrite(d *Data, value uint8)
	// PPUPeekAddress resolves a ppu address without side effects
	PPUPeekAddress(d *Data, addr uint16) (bool, bool, uint8, bool)
	// IRQ returns the level of the cartridge irq line
	IRQ() bool
	// ROMByteHack overwrites a byte of PRG-ROM, used by tests
	ROMByteHack(d *Data, addr uint32, value uint8)
	// CartridgeRegisters lists the mapper registers in display order
	CartridgeRegisters() []Register
}

// busWatcher is implemented by mappers that decode cpu writes to the
// console registers as well as to cartridge space
type busWatcher interface {
	MemoryCycleSnoop(addr uint16, value uint8)
}

// Register is one named mapper register for debug displays
type Register struct {
	Name  string
	Value uint8
}

func init() {
	gob.Register(&Mapper000{})
	gob.Register(&Mapper001{})
	gob.Register(&Mapper002{})
	gob.Register(&Mapper003{})
	gob.Register(&Mapper004{})
	gob.Register(&Mapper005{})
	gob.Register(&Mapper034{})
	gob.Register(&Mapper071{})
}

// createMapper creates the appropriate mapper for the given ID
func createMapper(id uint16, d *Data) (Mapper, error) {
	padPowerOfTwo(d)
	switch id {
	case 0:
		return NewMapper000(d), nil
	case 1:
		return NewMapper001(d), nil
	case 2:
		return NewMapper002(d), nil
	case 3:
		return NewMapper003(d), nil
	case 4:
		return NewMapper004(d), nil
	case 5:
		return NewMapper005(d), nil
	case 34:
		return NewMapper034(d), nil
	case 71:
		return NewMapper071(d), nil
	default:
		return nil, &LoadError{Kind: ErrKindIncompatibleMapper, MapperID: id}
	}
}

// SupportedMappers lists the mapper numbers that can be loaded
func SupportedMappers() []uint16 {
	return []uint16{0, 1, 2, 3, 4, 5, 34, 71}
}

// padPowerOfTwo mirrors rom contents up to a power of two so bank numbers can
// always be masked with size-1.
func padPowerOfTwo(d *Data) {
	d.Nonvolatile.PRGROM = mirrorUp(d.Nonvolatile.PRGROM)
	d.Nonvolatile.CHRROM = mirrorUp(d.Nonvolatile.CHRROM)
	d.Volatile.CHRRAM = mirrorUp(d.Volatile.CHRRAM)
}

func mirrorUp(b []uint8) []uint8 {
	n := len(b)
	if n == 0 || n&(n-1) == 0 {
		return b
	}
	size := 1
	for size < n {
		size <<= 1
	}
	out := make([]uint8, size)
	for i := range out {
		out[i] = b[i%n]
	}
	return out
}

// mirrorA10 picks the nametable bit for fixed mirroring
func mirrorA10(vertical bool, addr uint16) bool {
	if vertical {
		return addr&(1<<10) != 0
	}
	return addr&(1<<11) != 0
}

// prgRAMRead handles $6000-$7FFF, including a trainer mapped at $7000
func prgRAMRead(d *Data, addr uint16) (uint8, bool) {
	if d.Nonvolatile.Trainer != nil && addr >= 0x7000 && addr <= 0x71FF {
		return d.Nonvolatile.Trainer[addr&0x1FF], true
	}
	ram := d.Volatile.PRGRAM
	if ram == nil || ram.Len() == 0 {
		return 0, false
	}
	return ram.Read(int(addr & 0x1FFF)), true
}

func prgRAMWrite(d *Data, addr uint16, value uint8) {
	if d.Nonvolatile.Trainer != nil && addr >= 0x7000 && addr <= 0x71FF {
		d.Nonvolatile.Trainer[addr&0x1FF] = value
		return
	}
	ram := d.Volatile.PRGRAM
	if ram == nil || ram.Len() == 0 {
		return
	}
	ram.Write(int(addr&0x1FFF), value)
}

// prgByte reads PRG-ROM at a banked offset
func prgByte(d *Data, offset uint32) uint8 {
	rom := d.Nonvolatile.PRGROM
	return rom[offset&uint32(len(rom)-1)]
}

// chrByte reads character memory at a banked offset
func chrByte(d *Data, offset uint32) (uint8, bool) {
	chr := d.CHR()
	if len(chr) == 0 {
		return 0, false
	}
	return chr[offset&uint32(len(chr)-1)], true
}

// chrWrite writes character memory when it is RAM
func chrWrite(d *Data, offset uint32, value uint8) {
	if !d.HasCHRRAM() {
		return
	}
	chr := d.Volatile.CHRRAM
	chr[offset&uint32(len(chr)-1)] = value
}

func romByteHack(d *Data, addr uint32, value uint8) {
	rom := d.Nonvolatile.PRGROM
	rom[addr&uint32(len(rom)-1)] = value
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (r Register) String() string {
	return fmt.Sprintf("%s=%02X", r.Name, r.Value)
}
