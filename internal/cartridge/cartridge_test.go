package cartridge

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// Test data constants for iNES header construction
const (
	validINESMagic = "NES\x1A"
	invalidMagic   = "ROM\x1A"
)

// createValidINESHeader creates a valid 16-byte iNES header for testing
func createValidINESHeader(prgSize, chrSize, flags6, flags7 uint8) []byte {
	header := make([]byte, 16)
	copy(header[0:4], validINESMagic)
	header[4] = prgSize
	header[5] = chrSize
	header[6] = flags6
	header[7] = flags7
	return header
}

// createMinimalValidROM creates a minimal valid iNES ROM with specified sizes
func createMinimalValidROM(prgSize, chrSize uint8) []byte {
	rom := createValidINESHeader(prgSize, chrSize, 0, 0)

	prgData := make([]byte, int(prgSize)*16384)
	for i := range prgData {
		prgData[i] = uint8(i % 256)
	}
	rom = append(rom, prgData...)

	chrData := make([]byte, int(chrSize)*8192)
	for i := range chrData {
		chrData[i] = uint8((i + 128) % 256)
	}
	return append(rom, chrData...)
}

func TestLoadFromBytes_RAMStartsZeroed(t *testing.T) {
	rom := createMinimalValidROM(1, 0)
	for i := 0; i < 2; i++ {
		cart, err := LoadFromBytes("zero.nes", rom)
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		for _, b := range cart.Data().Volatile.PRGRAM.Bytes() {
			if b != 0 {
				t.Fatal("Expected PRG-RAM to load zeroed")
			}
		}
		for _, b := range cart.Data().Volatile.CHRRAM {
			if b != 0 {
				t.Fatal("Expected CHR-RAM to load zeroed")
			}
		}
	}
}

func TestScramble_IsSeededAndSparesBattery(t *testing.T) {
	rom := createMinimalValidROM(1, 0)
	a, _ := LoadFromBytes("a.nes", rom)
	b, _ := LoadFromBytes("b.nes", rom)
	a.Scramble(rand.New(rand.NewPCG(7, 7)))
	b.Scramble(rand.New(rand.NewPCG(7, 7)))
	if !bytes.Equal(a.Data().Volatile.PRGRAM.Bytes(), b.Data().Volatile.PRGRAM.Bytes()) ||
		!bytes.Equal(a.Data().Volatile.CHRRAM, b.Data().Volatile.CHRRAM) {
		t.Error("Expected the same seed to give the same RAM")
	}
	if bytes.Equal(a.Data().Volatile.CHRRAM, make([]byte, len(a.Data().Volatile.CHRRAM))) {
		t.Error("Expected CHR-RAM to be scrambled")
	}

	dir := t.TempDir()
	battery := createMinimalValidROM(1, 1)
	battery[6] |= 0x02
	romPath := filepath.Join(dir, "battery.nes")
	if err := os.WriteFile(romPath, battery, 0o644); err != nil {
		t.Fatal(err)
	}
	cart, err := LoadFromFile(romPath, dir)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	defer cart.Close()
	cart.Data().Volatile.PRGRAM.Write(0, 0x5A)
	cart.Scramble(rand.New(rand.NewPCG(1, 2)))
	if got := cart.Data().Volatile.PRGRAM.Read(0); got != 0x5A {
		t.Errorf("Expected battery RAM to survive, got %#x", got)
	}
}

func TestLoadFromReader_ValidiNESFormat_ShouldSucceed(t *testing.T) {
	tests := []struct {
		name        string
		prgSize     uint8
		chrSize     uint8
		expectedPRG int
		expectedCHR int
	}{
		{"16KB PRG, 8KB CHR", 1, 1, 16384, 8192},
		{"32KB PRG, 8KB CHR", 2, 1, 32768, 8192},
		{"16KB PRG, CHR RAM", 1, 0, 16384, 8192},
		{"32KB PRG, 16KB CHR", 2, 2, 32768, 16384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := LoadFromReader("test.nes", bytes.NewReader(createMinimalValidROM(tt.prgSize, tt.chrSize)))
			if err != nil {
				t.Fatalf("Expected successful load, got error: %v", err)
			}
			d := cart.Data()
			if len(d.Nonvolatile.PRGROM) != tt.expectedPRG {
				t.Errorf("Expected PRG ROM size %d, got %d", tt.expectedPRG, len(d.Nonvolatile.PRGROM))
			}
			if len(d.CHR()) != tt.expectedCHR {
				t.Errorf("Expected CHR size %d, got %d", tt.expectedCHR, len(d.CHR()))
			}
			if d.HasCHRRAM() != (tt.chrSize == 0) {
				t.Errorf("Expected CHR RAM %v, got %v", tt.chrSize == 0, d.HasCHRRAM())
			}
			if cart.Format() != FormatINES1 {
				t.Errorf("Expected iNES format, got %s", cart.Format())
			}
		})
	}
}

func TestLoadFromBytes_Errors_ShouldReportKind(t *testing.T) {
	valid := createMinimalValidROM(1, 1)

	badMagic := append([]byte{}, valid...)
	copy(badMagic, invalidMagic)

	archaic := append([]byte{}, valid...)
	copy(archaic[7:16], "DiskDude!")

	zeroPRG := createValidINESHeader(0, 1, 0, 0)
	zeroPRG = append(zeroPRG, make([]byte, 8192)...)

	unsupported := createMinimalValidROM(1, 1)
	unsupported[6] = 0xF0
	unsupported[7] = 0xF0

	// NES 2.0 exponent form with 2^63 bytes of PRG
	hugePRG := createValidINESHeader(0xFC, 0, 0, 0x08)
	hugePRG[9] = 0x0F
	hugePRG = append(hugePRG, make([]byte, 16384)...)
	hugeCHR := createValidINESHeader(1, 0xFC, 0, 0x08)
	hugeCHR[9] = 0xF0
	hugeCHR = append(hugeCHR, make([]byte, 16384)...)

	tests := []struct {
		name     string
		contents []byte
		want     error
	}{
		{"empty", nil, ErrMissingHeader},
		{"short header", valid[:10], ErrMissingHeader},
		{"bad magic", badMagic, ErrInvalidROM},
		{"archaic header", archaic, ErrInvalidROM},
		{"truncated prg", valid[:16+1000], ErrROMTooShort},
		{"truncated chr", valid[:len(valid)-1], ErrROMTooShort},
		{"trailing bytes", append(append([]byte{}, valid...), 0), ErrROMTooLong},
		{"zero prg", zeroPRG, ErrInvalidLength},
		{"unknown mapper", unsupported, ErrIncompatibleMapper},
		{"prg size exponent too large", hugePRG, ErrInvalidLength},
		{"chr size exponent too large", hugeCHR, ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := LoadFromBytes("bad.nes", tt.contents)
			if err == nil {
				t.Fatal("Expected error, got success")
			}
			if cart != nil {
				t.Error("Expected nil cartridge on error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFromBytes_UnknownMapper_ShouldCarryID(t *testing.T) {
	rom := createMinimalValidROM(1, 1)
	rom[6] = 0x90 // mapper 9
	_, err := LoadFromBytes("mmc2.nes", rom)

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LoadError, got %T", err)
	}
	if le.Kind != ErrKindIncompatibleMapper || le.MapperID != 9 {
		t.Errorf("Expected incompatible mapper 9, got kind %d mapper %d", le.Kind, le.MapperID)
	}
}

func TestMemorySnoop_ReachesWatchingMapper(t *testing.T) {
	rom := createMinimalValidROM(2, 1)
	rom[6] = 0x50 // mapper 5
	cart, err := LoadFromBytes("mmc5.nes", rom)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	mmc5, ok := cart.Mapper().(*Mapper005)
	if !ok {
		t.Fatalf("Expected *Mapper005, got %T", cart.Mapper())
	}

	cart.MemorySnoop(0x2008, 0x20) // mirror of $2000
	if !mmc5.SpriteSize16 {
		t.Error("Expected the $2000 write to select 8x16 sprites")
	}
	mmc5.InFrame = true
	cart.MemorySnoop(0x2001, 0x00)
	if mmc5.InFrame {
		t.Error("Expected disabling rendering to leave the frame")
	}

	// mappers without a bus watcher only see a nop cycle
	plain, err := LoadFromBytes("nrom.nes", createMinimalValidROM(1, 1))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	plain.MemorySnoop(0x2000, 0x80)
}

func TestLoadFromFile_MissingFile_ShouldReportFS(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.nes"), "")
	if !errors.Is(err, ErrFS) {
		t.Errorf("Expected filesystem error, got %v", err)
	}
}

func TestLoadFromBytes_MapperIdentification_ShouldExtractCorrectly(t *testing.T) {
	tests := []struct {
		name           string
		flags6         uint8
		flags7         uint8
		expectedMapper uint16
	}{
		{"Mapper 0 (NROM)", 0x00, 0x00, 0},
		{"Mapper 1 (MMC1)", 0x10, 0x00, 1},
		{"Mapper 4 (MMC3)", 0x40, 0x00, 4},
		{"Mapper 34 from both nibbles", 0x20, 0x20, 34},
		{"Mapper 71 from both nibbles", 0x70, 0x40, 71},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := createMinimalValidROM(2, 1)
			rom[6] = tt.flags6
			rom[7] = tt.flags7
			cart, err := LoadFromBytes("test.nes", rom)
			if err != nil {
				t.Fatalf("Expected success, got error: %v", err)
			}
			if cart.MapperID() != tt.expectedMapper {
				t.Errorf("Expected mapper ID %d, got %d", tt.expectedMapper, cart.MapperID())
			}
		})
	}
}

func TestLoadFromBytes_NES20_ShouldDecodeExtendedFields(t *testing.T) {
	rom := createMinimalValidROM(1, 0)
	rom[7] = 0x08  // NES 2.0 identifier
	rom[8] = 0x00  // mapper bits 8-11
	rom[10] = 0x07 // 64 << 7 = 8KB PRG-RAM
	rom[11] = 0x08 // 64 << 8 = 16KB CHR-RAM

	cart, err := LoadFromBytes("test.nes", rom)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if cart.Format() != FormatINES2 {
		t.Errorf("Expected NES 2.0, got %s", cart.Format())
	}
	if got := cart.Data().Volatile.PRGRAM.Len(); got != 8192 {
		t.Errorf("Expected 8192 bytes of PRG-RAM, got %d", got)
	}
	if got := len(cart.Data().Volatile.CHRRAM); got != 16384 {
		t.Errorf("Expected 16384 bytes of CHR-RAM, got %d", got)
	}
}

func TestLoadFromBytes_MirroringModes_ShouldDetectCorrectly(t *testing.T) {
	tests := []struct {
		name           string
		flags6         uint8
		expectedMirror MirrorMode
	}{
		{"Horizontal mirroring", 0x00, MirrorHorizontal},
		{"Vertical mirroring", 0x01, MirrorVertical},
		{"Four-screen mirroring", 0x08, MirrorFourScreen},
		{"Four-screen overrides vertical", 0x09, MirrorFourScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := createMinimalValidROM(1, 1)
			rom[6] = tt.flags6
			cart, err := LoadFromBytes("test.nes", rom)
			if err != nil {
				t.Fatalf("Expected success, got error: %v", err)
			}
			if cart.Mirroring() != tt.expectedMirror {
				t.Errorf("Expected mirror mode %s, got %s", tt.expectedMirror, cart.Mirroring())
			}
		})
	}
}

func TestLoadFromBytes_HashAndNames(t *testing.T) {
	rom := createMinimalValidROM(1, 1)
	a, err := LoadFromBytes("roms/game.nes", rom)
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadFromBytes("other.nes", rom)
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash() != b.Hash() || len(a.Hash()) != 64 {
		t.Errorf("Expected identical sha256 hex hashes, got %q and %q", a.Hash(), b.Hash())
	}
	if a.SaveName() != "game.nes.save" {
		t.Errorf("Expected save name game.nes.save, got %s", a.SaveName())
	}
	if a.Name() != "roms/game.nes" {
		t.Errorf("Expected name roms/game.nes, got %s", a.Name())
	}
}

func TestTrainer_ShouldAppearAt7000(t *testing.T) {
	trainer := make([]uint8, 512)
	for i := range trainer {
		trainer[i] = uint8(i*3 + 1)
	}
	cart, err := NewTestROMBuilder().WithTrainer(trainer).BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	for _, addr := range []uint16{0x7000, 0x7001, 0x70FF, 0x71FF} {
		v, ok := cart.MemoryDump(addr)
		if !ok || v != trainer[addr-0x7000] {
			t.Errorf("Trainer byte at $%04X: got %02X,%v want %02X", addr, v, ok, trainer[addr-0x7000])
		}
	}
}

func TestBuilder_ProgramAndVectors_ShouldBeVisible(t *testing.T) {
	program := []uint8{0xA9, 0x42, 0x8D, 0x00, 0x02}
	cart, err := NewTestROMBuilder().
		WithPRGSize(2).
		WithInstructions(program).
		WithResetVector(0x8000).
		WithNMIVector(0x9000).
		WithIRQVector(0xA000).
		WithData(0xC000, []uint8{0xDE, 0xAD}).
		BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}

	for i, want := range program {
		if v, _ := cart.MemoryDump(0x8000 + uint16(i)); v != want {
			t.Errorf("Program byte %d: got %02X want %02X", i, v, want)
		}
	}
	vectors := map[uint16]uint16{0xFFFA: 0x9000, 0xFFFC: 0x8000, 0xFFFE: 0xA000}
	for addr, want := range vectors {
		lo, _ := cart.MemoryDump(addr)
		hi, _ := cart.MemoryDump(addr + 1)
		if got := uint16(lo) | uint16(hi)<<8; got != want {
			t.Errorf("Vector $%04X: got $%04X want $%04X", addr, got, want)
		}
	}
	if v, _ := cart.MemoryDump(0xC001); v != 0xAD {
		t.Errorf("Data byte at $C001: got %02X want AD", v)
	}
}

func TestBatteryRAM_ShouldPersistAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	rom, err := NewTestROMBuilder().WithBattery().Build()
	if err != nil {
		t.Fatal(err)
	}
	romPath := filepath.Join(dir, "battery.nes")
	if err := os.WriteFile(romPath, rom, 0o644); err != nil {
		t.Fatal(err)
	}

	cart, err := LoadFromFile(romPath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cart.HasBattery() {
		t.Fatal("Expected battery flag")
	}
	if !cart.Data().Volatile.PRGRAM.Persistent() {
		t.Fatal("Expected persistent PRG-RAM")
	}
	cart.MemoryWrite(0x6000, 0x5A)
	cart.MemoryWrite(0x7FFF, 0xA5)
	if err := cart.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := LoadFromFile(romPath, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	if v, _ := again.MemoryDump(0x6000); v != 0x5A {
		t.Errorf("Expected 5A at $6000 after reload, got %02X", v)
	}
	if v, _ := again.MemoryDump(0x7FFF); v != 0xA5 {
		t.Errorf("Expected A5 at $7FFF after reload, got %02X", v)
	}
}

func TestRestoreVolatile_ShouldKeepBacking(t *testing.T) {
	cart, err := NewTestROMBuilder().WithCHRRAM().BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	ram := cart.Data().Volatile.PRGRAM

	saved := cart.Data().Volatile
	saved.PRGRAM = NewStorage(make([]uint8, ram.Len()))
	saved.PRGRAM.Write(0x10, 0x77)
	saved.CHRRAM = make([]uint8, len(saved.CHRRAM))

	cart.RestoreVolatile(saved)
	if cart.Data().Volatile.PRGRAM != ram {
		t.Error("Expected the original storage to be kept")
	}
	if v, _ := cart.MemoryDump(0x6010); v != 0x77 {
		t.Errorf("Expected restored byte 77, got %02X", v)
	}
}
