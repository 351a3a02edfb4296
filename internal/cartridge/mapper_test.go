package cartridge

import (
	"testing"
)

func newMapperUnderTest(t *testing.T, id uint16, prgSize, chrSize int) (Mapper, *Data) {
	t.Helper()
	var chr []uint8
	if chrSize > 0 {
		chr = PatternedROM(chrSize)
	}
	d := NewTestData(PatternedROM(prgSize), chr, 8192)
	m, err := NewTestMapper(id, d)
	if err != nil {
		t.Fatalf("Failed to create mapper %d: %v", id, err)
	}
	return m, d
}

// mmc1Write loads a register through the serial port, with a cycle between
// writes so the consecutive-write filter does not drop any.
func mmc1Write(m Mapper, d *Data, addr uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.MemoryCycleWrite(d, addr, value>>i&1)
		m.MemoryCycleNop()
	}
}

func TestMapper_ReadMatchesDump(t *testing.T) {
	for _, id := range SupportedMappers() {
		m, d := newMapperUnderTest(t, id, 128*1024, 32*1024)
		for addr := 0x6000; addr <= 0xFFFF; addr += 0x0123 {
			want, wantOK := m.MemoryCycleDump(d, uint16(addr))
			got, gotOK := m.MemoryCycleRead(d, uint16(addr))
			if got != want || gotOK != wantOK {
				t.Errorf("Mapper %d at $%04X: read %02X,%v dump %02X,%v", id, addr, got, gotOK, want, wantOK)
			}
		}
	}
}

func TestMapper_PeekMatchesCycle(t *testing.T) {
	for _, id := range SupportedMappers() {
		m, d := newMapperUnderTest(t, id, 32*1024, 32*1024)
		for addr := uint16(0); addr < 0x2000; addr += 0x0155 {
			_, _, want, wantOK := m.PPUPeekAddress(d, addr)
			m.PPUMemoryCycleAddress(addr)
			got, gotOK := m.PPUMemoryCycleRead(d)
			if got != want || gotOK != wantOK {
				t.Errorf("Mapper %d at $%04X: cycle %02X,%v peek %02X,%v", id, addr, got, gotOK, want, wantOK)
			}
		}
	}
}

func TestMapper_NametableAddressesFallThrough(t *testing.T) {
	for _, id := range SupportedMappers() {
		m, d := newMapperUnderTest(t, id, 32*1024, 8192)
		m.PPUMemoryCycleAddress(0x2400)
		if _, ok := m.PPUMemoryCycleRead(d); ok {
			t.Errorf("Mapper %d answered a nametable read", id)
		}
	}
}

func TestMapper000_MirrorsSixteenKB(t *testing.T) {
	m, d := newMapperUnderTest(t, 0, 16*1024, 8192)
	for _, addr := range []uint16{0x8000, 0x9234, 0xBFFF} {
		lo, _ := m.MemoryCycleDump(d, addr)
		hi, _ := m.MemoryCycleDump(d, addr+0x4000)
		if lo != hi {
			t.Errorf("Expected $%04X to mirror $%04X: %02X vs %02X", addr, addr+0x4000, lo, hi)
		}
	}
}

func TestMapper000_CHRRAMWritable(t *testing.T) {
	m, d := newMapperUnderTest(t, 0, 32*1024, 0)
	m.PPUMemoryCycleAddress(0x0123)
	m.PPUMemoryCycleWrite(d, 0x99)
	m.PPUMemoryCycleAddress(0x0123)
	if v, _ := m.PPUMemoryCycleRead(d); v != 0x99 {
		t.Errorf("Expected CHR-RAM to hold 99, got %02X", v)
	}
}

func TestMapper000_CHRROMReadOnly(t *testing.T) {
	m, d := newMapperUnderTest(t, 0, 32*1024, 8192)
	m.PPUMemoryCycleAddress(0x0010)
	before, _ := m.PPUMemoryCycleRead(d)
	m.PPUMemoryCycleWrite(d, before+1)
	if after, _ := m.PPUMemoryCycleRead(d); after != before {
		t.Errorf("CHR-ROM changed from %02X to %02X", before, after)
	}
}

func TestMapper002_BankSwitching(t *testing.T) {
	m, d := newMapperUnderTest(t, 2, 128*1024, 0)
	rom := d.Nonvolatile.PRGROM

	for bank := uint8(0); bank < 8; bank++ {
		m.MemoryCycleWrite(d, 0x8000, bank)
		if v, _ := m.MemoryCycleDump(d, 0x8123); v != rom[int(bank)*0x4000+0x123] {
			t.Errorf("Bank %d: got %02X want %02X", bank, v, rom[int(bank)*0x4000+0x123])
		}
		if v, _ := m.MemoryCycleDump(d, 0xC123); v != rom[7*0x4000+0x123] {
			t.Errorf("Bank %d: fixed bank read %02X want %02X", bank, v, rom[7*0x4000+0x123])
		}
	}
}

func TestMapper003_CHRBankSwitching(t *testing.T) {
	m, d := newMapperUnderTest(t, 3, 32*1024, 32*1024)
	chr := d.Nonvolatile.CHRROM
	for bank := uint8(0); bank < 4; bank++ {
		m.MemoryCycleWrite(d, 0x8000, bank)
		_, _, v, _ := m.PPUPeekAddress(d, 0x1ABC)
		if want := chr[int(bank)*0x2000+0x1ABC]; v != want {
			t.Errorf("CHR bank %d: got %02X want %02X", bank, v, want)
		}
	}
}

func TestMapper001_SerialLoad(t *testing.T) {
	m, d := newMapperUnderTest(t, 1, 128*1024, 32*1024)
	rom := d.Nonvolatile.PRGROM

	// Power on: 16KB mode with the last bank fixed at $C000
	if v, _ := m.MemoryCycleDump(d, 0xC000); v != rom[7*0x4000] {
		t.Errorf("Expected last bank at $C000, got %02X", v)
	}

	mmc1Write(m, d, 0xE000, 3)
	if v, _ := m.MemoryCycleDump(d, 0x8010); v != rom[3*0x4000+0x10] {
		t.Errorf("Expected bank 3 at $8000, got %02X", v)
	}

	// 32KB mode ignores the low bank bit
	mmc1Write(m, d, 0x8000, 0x00)
	if v, _ := m.MemoryCycleDump(d, 0x8010); v != rom[2*0x4000+0x10] {
		t.Errorf("Expected bank 2 in 32KB mode, got %02X", v)
	}
}

func TestMapper001_ConsecutiveWritesIgnored(t *testing.T) {
	m, d := newMapperUnderTest(t, 1, 128*1024, 32*1024)
	mmc1 := m.(*Mapper001)

	m.MemoryCycleWrite(d, 0x8000, 1)
	m.MemoryCycleWrite(d, 0x8000, 1)
	if mmc1.ShiftCount != 1 {
		t.Errorf("Expected back-to-back write to be dropped, shift count %d", mmc1.ShiftCount)
	}

	m.MemoryCycleNop()
	m.MemoryCycleWrite(d, 0x8000, 0x80)
	if mmc1.ShiftCount != 0 || mmc1.Registers[0]&0x0C != 0x0C {
		t.Errorf("Expected reset write to clear the shift register, count %d control %02X",
			mmc1.ShiftCount, mmc1.Registers[0])
	}
}

func TestMapper001_Mirroring(t *testing.T) {
	m, d := newMapperUnderTest(t, 1, 32*1024, 8192)
	tests := []struct {
		control uint8
		addr    uint16
		a10     bool
	}{
		{0x0C, 0x2400, false},
		{0x0D, 0x2000, true},
		{0x0E, 0x2400, true},
		{0x0E, 0x2800, false},
		{0x0F, 0x2800, true},
		{0x0F, 0x2400, false},
	}
	for _, tt := range tests {
		mmc1Write(m, d, 0x8000, tt.control)
		if a10, _ := m.PPUMemoryCycleAddress(tt.addr); a10 != tt.a10 {
			t.Errorf("Control %02X at $%04X: got A10 %v want %v", tt.control, tt.addr, a10, tt.a10)
		}
	}
}

func TestMapper001_PRGRAMDisable(t *testing.T) {
	m, d := newMapperUnderTest(t, 1, 32*1024, 8192)
	m.MemoryCycleWrite(d, 0x6000, 0x12)
	if v, ok := m.MemoryCycleDump(d, 0x6000); !ok || v != 0x12 {
		t.Fatalf("Expected PRG-RAM 12, got %02X,%v", v, ok)
	}
	mmc1Write(m, d, 0xE000, 0x10)
	if _, ok := m.MemoryCycleDump(d, 0x6000); ok {
		t.Error("Expected disabled PRG-RAM to leave the bus open")
	}
}

func TestMapper004_PRGBanks(t *testing.T) {
	m, d := newMapperUnderTest(t, 4, 128*1024, 64*1024)
	rom := d.Nonvolatile.PRGROM
	bank := func(n int, off int) uint8 { return rom[n*0x2000+off] }

	m.MemoryCycleWrite(d, 0x8000, 6)
	m.MemoryCycleWrite(d, 0x8001, 5)
	m.MemoryCycleWrite(d, 0x8000, 7)
	m.MemoryCycleWrite(d, 0x8001, 9)

	checks := []struct {
		addr uint16
		want uint8
	}{
		{0x8004, bank(5, 4)},
		{0xA004, bank(9, 4)},
		{0xC004, bank(14, 4)},
		{0xE004, bank(15, 4)},
	}
	for _, c := range checks {
		if v, _ := m.MemoryCycleDump(d, c.addr); v != c.want {
			t.Errorf("$%04X: got %02X want %02X", c.addr, v, c.want)
		}
	}

	// PRG mode 1 swaps $8000 and $C000
	m.MemoryCycleWrite(d, 0x8000, 0x46)
	if v, _ := m.MemoryCycleDump(d, 0x8004); v != bank(14, 4) {
		t.Errorf("Swapped $8000: got %02X want %02X", v, bank(14, 4))
	}
	if v, _ := m.MemoryCycleDump(d, 0xC004); v != bank(5, 4) {
		t.Errorf("Swapped $C000: got %02X want %02X", v, bank(5, 4))
	}
}

func TestMapper004_CHRInversion(t *testing.T) {
	m, d := newMapperUnderTest(t, 4, 32*1024, 64*1024)
	chr := d.Nonvolatile.CHRROM

	m.MemoryCycleWrite(d, 0x8000, 0) // R0, 2KB at $0000
	m.MemoryCycleWrite(d, 0x8001, 8)
	m.MemoryCycleWrite(d, 0x8000, 2) // R2, 1KB at $1000
	m.MemoryCycleWrite(d, 0x8001, 20)

	if _, _, v, _ := m.PPUPeekAddress(d, 0x0410); v != chr[9*0x400+0x10] {
		t.Errorf("R0 upper half: got %02X want %02X", v, chr[9*0x400+0x10])
	}
	if _, _, v, _ := m.PPUPeekAddress(d, 0x1010); v != chr[20*0x400+0x10] {
		t.Errorf("R2: got %02X want %02X", v, chr[20*0x400+0x10])
	}

	m.MemoryCycleWrite(d, 0x8000, 0x80)
	if _, _, v, _ := m.PPUPeekAddress(d, 0x0010); v != chr[20*0x400+0x10] {
		t.Errorf("Inverted R2: got %02X want %02X", v, chr[20*0x400+0x10])
	}
}

// a12Edge drives the ppu address low for low cycles then raises A12
func a12Edge(m Mapper, low int) {
	for i := 0; i < low; i++ {
		m.PPUMemoryCycleAddress(0x0000)
	}
	m.PPUMemoryCycleAddress(0x1000)
}

func TestMapper004_ScanlineIRQ(t *testing.T) {
	m, d := newMapperUnderTest(t, 4, 32*1024, 8192)

	m.MemoryCycleWrite(d, 0xC000, 2) // latch
	m.MemoryCycleWrite(d, 0xC001, 0) // reload
	m.MemoryCycleWrite(d, 0xE001, 0) // enable

	a12Edge(m, 8) // reload to 2
	a12Edge(m, 8) // 1
	if m.IRQ() {
		t.Fatal("IRQ asserted early")
	}
	a12Edge(m, 8) // 0
	if !m.IRQ() {
		t.Fatal("Expected IRQ when the counter reaches zero")
	}

	m.MemoryCycleWrite(d, 0xE000, 0)
	if m.IRQ() {
		t.Error("Expected $E000 to acknowledge the IRQ")
	}
}

func TestMapper004_A12FilterIgnoresShortDrops(t *testing.T) {
	m, d := newMapperUnderTest(t, 4, 32*1024, 8192)
	mmc3 := m.(*Mapper004)

	m.MemoryCycleWrite(d, 0xC000, 5)
	m.MemoryCycleWrite(d, 0xC001, 0)
	a12Edge(m, 8)
	if mmc3.IRQCounter != 5 {
		t.Fatalf("Expected counter reload to 5, got %d", mmc3.IRQCounter)
	}
	for i := 0; i < 4; i++ {
		a12Edge(m, a12LowCycles-1)
	}
	if mmc3.IRQCounter != 5 {
		t.Errorf("Expected short drops to be filtered, counter %d", mmc3.IRQCounter)
	}
	a12Edge(m, a12LowCycles)
	if mmc3.IRQCounter != 4 {
		t.Errorf("Expected counter 4, got %d", mmc3.IRQCounter)
	}
}

func TestMapper004_Mirroring(t *testing.T) {
	m, d := newMapperUnderTest(t, 4, 32*1024, 8192)
	m.MemoryCycleWrite(d, 0xA000, 0)
	if a10, _ := m.PPUMemoryCycleAddress(0x2400); !a10 {
		t.Error("Expected vertical mirroring to follow address bit 10")
	}
	m.MemoryCycleWrite(d, 0xA000, 1)
	if a10, _ := m.PPUMemoryCycleAddress(0x2800); !a10 {
		t.Error("Expected horizontal mirroring to follow address bit 11")
	}
}

func TestMapper004_FourScreen(t *testing.T) {
	d := NewTestData(PatternedROM(32*1024), PatternedROM(8192), 8192)
	d.Volatile.FourScreen = true
	m, err := NewTestMapper(4, d)
	if err != nil {
		t.Fatalf("Failed to create mapper: %v", err)
	}

	write := func(addr uint16, v uint8) {
		if _, disable := m.PPUMemoryCycleAddress(addr); !disable {
			t.Fatalf("Expected internal VRAM disabled at $%04X", addr)
		}
		m.PPUMemoryCycleWrite(d, v)
	}
	write(0x2005, 0x11)
	write(0x2405, 0x22)
	write(0x2805, 0x33)
	write(0x2C05, 0x44)

	want := map[uint16]uint8{0x2005: 0x11, 0x2405: 0x22, 0x2805: 0x33, 0x2C05: 0x44, 0x3C05: 0x44}
	for addr, v := range want {
		m.PPUMemoryCycleAddress(addr)
		if got, ok := m.PPUMemoryCycleRead(d); !ok || got != v {
			t.Errorf("Read $%04X: got %02X,%v want %02X", addr, got, ok, v)
		}
		if _, disable, got, ok := m.PPUPeekAddress(d, addr); !disable || !ok || got != v {
			t.Errorf("Peek $%04X: got %02X,%v,%v want %02X", addr, got, disable, ok, v)
		}
	}

	m.PPUMemoryCycleAddress(0x0123)
	if got, _ := m.PPUMemoryCycleRead(d); got != d.Nonvolatile.CHRROM[0x0123] {
		t.Errorf("Pattern read: got %02X want %02X", got, d.Nonvolatile.CHRROM[0x0123])
	}
}

func TestMapper005_PRGModes(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 128*1024, 8192)
	rom := d.Nonvolatile.PRGROM
	check := func(name string, addr uint16, want uint32) {
		t.Helper()
		if v, _ := m.MemoryCycleDump(d, addr); v != rom[want] {
			t.Errorf("%s: $%04X = %02X, want rom[%05X] %02X", name, addr, v, want, rom[want])
		}
	}

	check("reset", 0xE000, 0x1E000)
	m.MemoryCycleWrite(d, 0x5114, 0x81)
	check("mode 3", 0x8010, 0x2010)

	m.MemoryCycleWrite(d, 0x5100, 0)
	m.MemoryCycleWrite(d, 0x5117, 0x07)
	check("mode 0", 0x8010, 0x8010)
	check("mode 0 high", 0xF000, 0xF000)

	m.MemoryCycleWrite(d, 0x5100, 1)
	m.MemoryCycleWrite(d, 0x5115, 0x84)
	check("mode 1 low", 0xA000, 2*0x4000+0x2000)
	check("mode 1 high", 0xC001, 3*0x4000+1)

	m.MemoryCycleWrite(d, 0x5100, 2)
	m.MemoryCycleWrite(d, 0x5116, 0x85)
	check("mode 2 $C000", 0xC002, 5*0x2000+2)
	check("mode 2 $E000", 0xE003, 7*0x2000+3)
}

func TestMapper005_PRGRAMProtect(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 64*1024, 8192)
	m.MemoryCycleWrite(d, 0x5113, 0)
	m.MemoryCycleWrite(d, 0x6010, 0x5A)
	if v, _ := m.MemoryCycleDump(d, 0x6010); v == 0x5A {
		t.Error("Expected PRG-RAM writes to be ignored while protected")
	}

	m.MemoryCycleWrite(d, 0x5102, 2)
	m.MemoryCycleWrite(d, 0x5103, 1)
	m.MemoryCycleWrite(d, 0x6010, 0x5A)
	if v, ok := m.MemoryCycleDump(d, 0x6010); !ok || v != 0x5A {
		t.Errorf("$6010 = %02X,%v after unlock", v, ok)
	}

	// RAM mapped into the $8000 window
	m.MemoryCycleWrite(d, 0x5114, 0x00)
	if v, _ := m.MemoryCycleDump(d, 0x8010); v != 0x5A {
		t.Errorf("RAM at $8010 = %02X, want 5A", v)
	}
	m.MemoryCycleWrite(d, 0x8011, 0xA5)
	if v, _ := m.MemoryCycleDump(d, 0x6011); v != 0xA5 {
		t.Errorf("write through $8011 = %02X, want A5", v)
	}
	m.MemoryCycleWrite(d, 0xE000, 0x11)
	if v, _ := m.MemoryCycleDump(d, 0x6000); v == 0x11 {
		t.Error("$E000 is always ROM")
	}
}

func TestMapper005_Multiplier(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 8192)
	m.MemoryCycleWrite(d, 0x5205, 200)
	m.MemoryCycleWrite(d, 0x5206, 3)
	lo, _ := m.MemoryCycleRead(d, 0x5205)
	hi, _ := m.MemoryCycleRead(d, 0x5206)
	if got := uint16(hi)<<8 | uint16(lo); got != 600 {
		t.Errorf("200*3 = %d", got)
	}
}

func TestMapper005_CHRBanks(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 512*1024)
	chr := d.Nonvolatile.CHRROM
	read := func(addr uint16) uint8 {
		_, _, v, _ := m.PPUPeekAddress(d, addr)
		return v
	}

	m.MemoryCycleWrite(d, 0x5123, 5)
	if v := read(0x0C10); v != chr[5*0x400+0x10] {
		t.Errorf("1KB bank: got %02X want %02X", v, chr[5*0x400+0x10])
	}

	m.MemoryCycleWrite(d, 0x5130, 1)
	m.MemoryCycleWrite(d, 0x5120, 0x02)
	if v := read(0x0010); v != chr[0x102*0x400+0x10] {
		t.Errorf("upper bits: got %02X want %02X", v, chr[0x102*0x400+0x10])
	}

	m.MemoryCycleWrite(d, 0x5101, 0)
	m.MemoryCycleWrite(d, 0x5130, 0)
	m.MemoryCycleWrite(d, 0x5127, 2)
	if v := read(0x1234); v != chr[2*0x2000+0x1234] {
		t.Errorf("8KB bank: got %02X want %02X", v, chr[2*0x2000+0x1234])
	}

	// with 8x16 sprites, $2007 uses whichever set was written last
	mmc5 := m.(*Mapper005)
	mmc5.CHRMode = 3
	mmc5.CHRUpper = 0
	mmc5.MemoryCycleSnoop(0x2000, 0x20)
	m.MemoryCycleWrite(d, 0x512B, 7)
	if v := read(0x0C10); v != chr[7*0x400+0x10] {
		t.Errorf("set B: got %02X want %02X", v, chr[7*0x400+0x10])
	}
	m.MemoryCycleWrite(d, 0x5123, 9)
	if v := read(0x0C10); v != chr[9*0x400+0x10] {
		t.Errorf("set A after write: got %02X want %02X", v, chr[9*0x400+0x10])
	}
}

func TestMapper005_Nametables(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 8192)
	m.MemoryCycleWrite(d, 0x5105, 0xE4) // 0, 1, ExRAM, fill
	m.MemoryCycleWrite(d, 0x5106, 0x42)
	m.MemoryCycleWrite(d, 0x5107, 2)
	m.MemoryCycleWrite(d, 0x5104, 2)
	m.MemoryCycleWrite(d, 0x5C05, 0x77)
	m.MemoryCycleWrite(d, 0x5104, 0)

	tests := []struct {
		addr    uint16
		a10     bool
		disable bool
		value   uint8
	}{
		{0x2005, false, false, 0},
		{0x2405, true, false, 0},
		{0x2805, false, true, 0x77},
		{0x2C10, false, true, 0x42},
		{0x2FC1, false, true, 0xAA},
	}
	for _, tt := range tests {
		a10, disable := m.PPUMemoryCycleAddress(tt.addr)
		if a10 != tt.a10 || disable != tt.disable {
			t.Errorf("$%04X: a10 %v disable %v", tt.addr, a10, disable)
			continue
		}
		if !disable {
			continue
		}
		if v, ok := m.PPUMemoryCycleRead(d); !ok || v != tt.value {
			t.Errorf("$%04X = %02X,%v want %02X", tt.addr, v, ok, tt.value)
		}
	}
}

func TestMapper005_ExRAMAccess(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 8192)
	m.MemoryCycleWrite(d, 0x5104, 0)
	m.MemoryCycleWrite(d, 0x5C00, 0x33)
	if _, ok := m.MemoryCycleRead(d, 0x5C00); ok {
		t.Error("Expected ExRAM to read open bus in nametable mode")
	}
	if m.(*Mapper005).ExRAM[0] != 0 {
		t.Error("Expected writes outside rendering to store zero")
	}

	m.MemoryCycleWrite(d, 0x5104, 2)
	m.MemoryCycleWrite(d, 0x5C00, 0x33)
	m.MemoryCycleWrite(d, 0x5104, 3)
	m.MemoryCycleWrite(d, 0x5C00, 0x44)
	if v, ok := m.MemoryCycleRead(d, 0x5C00); !ok || v != 0x33 {
		t.Errorf("read-only ExRAM = %02X,%v want 33", v, ok)
	}
}

// mmc5Line lists the ppu fetch addresses of one rendered line, starting
// with the first background nametable fetch and ending with the two
// unused nametable fetches.
func mmc5Line() []uint16 {
	var line []uint16
	tile := func(nt uint16) {
		line = append(line, 0x2000|nt, 0x23C0|nt>>2&7, 0x1000|nt&0xF0, 0x1008|nt&0xF0)
	}
	for i := uint16(0); i < 32; i++ {
		tile(i)
	}
	for i := 0; i < 8; i++ {
		line = append(line, 0x2040, 0x2040, 0x0000, 0x0008)
	}
	tile(0x20)
	tile(0x21)
	return append(line, 0x2000, 0x2000)
}

func mmc5Fetch(m Mapper, addrs []uint16) {
	for _, a := range addrs {
		m.PPUMemoryCycleAddress(a)
	}
}

func TestMapper005_ScanlineIRQ(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 8192)
	mmc5 := m.(*Mapper005)
	m.MemoryCycleWrite(d, 0x5203, 2)
	m.MemoryCycleWrite(d, 0x5204, 0x80)

	mmc5Fetch(m, mmc5Line())
	if mmc5.InFrame {
		t.Fatal("Expected no frame before a repeated nametable fetch")
	}
	mmc5Fetch(m, mmc5Line())
	if !mmc5.InFrame || mmc5.Scanline != 0 {
		t.Fatalf("Expected scanline 0 in frame, got %d %v", mmc5.Scanline, mmc5.InFrame)
	}
	mmc5Fetch(m, mmc5Line())
	if m.IRQ() {
		t.Fatal("IRQ fired early")
	}
	mmc5Fetch(m, mmc5Line())
	if !m.IRQ() {
		t.Fatalf("Expected IRQ on scanline 2, at %d", mmc5.Scanline)
	}

	if v, _ := m.MemoryCycleRead(d, 0x5204); v != 0xC0 {
		t.Errorf("$5204 = %02X, want C0", v)
	}
	if m.IRQ() {
		t.Error("Expected reading $5204 to acknowledge the IRQ")
	}

	for i := 0; i < 3; i++ {
		m.MemoryCycleNop()
	}
	if v, _ := m.MemoryCycleDump(d, 0x5204); v != 0 {
		t.Errorf("$5204 = %02X after the ppu went idle", v)
	}
}

func TestMapper005_NMIVectorLeavesFrame(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 8192)
	mmc5Fetch(m, mmc5Line())
	mmc5Fetch(m, mmc5Line())
	m.MemoryCycleRead(d, 0xFFFA)
	if m.(*Mapper005).InFrame {
		t.Error("Expected the nmi vector fetch to clear in-frame")
	}
}

func TestMapper005_SpriteFetchesUseSetA(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 64*1024)
	chr := d.Nonvolatile.CHRROM
	m.(*Mapper005).MemoryCycleSnoop(0x2000, 0x20)
	m.MemoryCycleWrite(d, 0x5120, 3) // sprites $0000
	m.MemoryCycleWrite(d, 0x5128, 6) // background $1000

	mmc5Fetch(m, mmc5Line())
	line := mmc5Line()
	mmc5Fetch(m, line)
	for i, a := range line {
		m.PPUMemoryCycleAddress(a)
		v, _ := m.PPUMemoryCycleRead(d)
		switch i {
		case 2:
			if want := chr[6*0x400+0x000]; v != want {
				t.Errorf("background pattern = %02X, want set B %02X", v, want)
			}
		case 130:
			if want := chr[3*0x400]; v != want {
				t.Errorf("sprite pattern = %02X, want set A %02X", v, want)
			}
		}
	}
}

func TestMapper005_ExtendedAttributes(t *testing.T) {
	m, d := newMapperUnderTest(t, 5, 32*1024, 64*1024)
	chr := d.Nonvolatile.CHRROM
	m.MemoryCycleWrite(d, 0x5104, 2)
	m.MemoryCycleWrite(d, 0x5C00, 0xC5) // palette 3, 4KB bank 5
	m.MemoryCycleWrite(d, 0x5104, 1)

	mmc5Fetch(m, mmc5Line())
	mmc5Fetch(m, mmc5Line())

	if _, disable := m.PPUMemoryCycleAddress(0x2000); disable {
		t.Error("Expected the tile fetch to stay in console VRAM")
	}
	if _, disable := m.PPUMemoryCycleAddress(0x23C0); !disable {
		t.Fatal("Expected the attribute fetch to come from ExRAM")
	}
	if v, _ := m.PPUMemoryCycleRead(d); v != 0xFF {
		t.Errorf("attribute = %02X, want FF", v)
	}
	m.PPUMemoryCycleAddress(0x1010)
	if v, _ := m.PPUMemoryCycleRead(d); v != chr[5*0x1000+0x010] {
		t.Errorf("pattern = %02X, want %02X", v, chr[5*0x1000+0x010])
	}
}

func TestMapper034_BNROM(t *testing.T) {
	m, d := newMapperUnderTest(t, 34, 128*1024, 8192)
	rom := d.Nonvolatile.PRGROM
	m.MemoryCycleWrite(d, 0x8000, 2)
	if v, _ := m.MemoryCycleDump(d, 0x8123); v != rom[2*0x8000+0x123] {
		t.Errorf("Bank 2: got %02X want %02X", v, rom[2*0x8000+0x123])
	}
}

func TestMapper034_NINA(t *testing.T) {
	m, d := newMapperUnderTest(t, 34, 64*1024, 64*1024)
	chr := d.Nonvolatile.CHRROM
	rom := d.Nonvolatile.PRGROM

	m.MemoryCycleWrite(d, 0x7FFD, 1)
	m.MemoryCycleWrite(d, 0x7FFE, 5)
	m.MemoryCycleWrite(d, 0x7FFF, 9)
	m.MemoryCycleWrite(d, 0x8000, 0) // ignored on NINA

	if v, _ := m.MemoryCycleDump(d, 0x8000); v != rom[0x8000] {
		t.Errorf("PRG bank 1: got %02X want %02X", v, rom[0x8000])
	}
	if _, _, v, _ := m.PPUPeekAddress(d, 0x0020); v != chr[5*0x1000+0x20] {
		t.Errorf("CHR0: got %02X want %02X", v, chr[5*0x1000+0x20])
	}
	if _, _, v, _ := m.PPUPeekAddress(d, 0x1020); v != chr[9*0x1000+0x20] {
		t.Errorf("CHR1: got %02X want %02X", v, chr[9*0x1000+0x20])
	}
}

func TestMapper071_SingleScreen(t *testing.T) {
	m, d := newMapperUnderTest(t, 71, 64*1024, 0)

	m.MemoryCycleWrite(d, 0x9000, 0x10)
	for _, addr := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		if a10, _ := m.PPUMemoryCycleAddress(addr); !a10 {
			t.Errorf("Expected screen 1 at $%04X", addr)
		}
	}
	m.MemoryCycleWrite(d, 0x9000, 0x00)
	if a10, _ := m.PPUMemoryCycleAddress(0x2C00); a10 {
		t.Error("Expected screen 0")
	}

	rom := d.Nonvolatile.PRGROM
	m.MemoryCycleWrite(d, 0xC000, 2)
	if v, _ := m.MemoryCycleDump(d, 0x8001); v != rom[2*0x4000+1] {
		t.Errorf("Bank 2: got %02X want %02X", v, rom[2*0x4000+1])
	}
}

func TestRegisters_ShouldFormat(t *testing.T) {
	r := Register{Name: "PRG", Value: 0x0A}
	if r.String() != "PRG=0A" {
		t.Errorf("Expected PRG=0A, got %s", r.String())
	}
	for _, id := range SupportedMappers() {
		m, _ := newMapperUnderTest(t, id, 32*1024, 8192)
		if len(m.CartridgeRegisters()) == 0 {
			t.Errorf("Mapper %d lists no registers", id)
		}
	}
}
