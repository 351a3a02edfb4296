package cartridge

import (
	"fmt"
)

// TestROMConfig represents configuration for test ROM generation
type TestROMConfig struct {
	PRGSize      uint8            // PRG ROM size in 16KB units
	CHRSize      uint8            // CHR ROM size in 8KB units (0 = CHR RAM)
	MapperID     uint8            // Mapper number
	Mirroring    MirrorMode       // Nametable mirroring
	HasBattery   bool             // Battery-backed SRAM
	HasTrainer   bool             // 512-byte trainer
	Instructions []uint8          // Program placed at the reset vector
	InitialData  map[uint16]uint8 // Bytes at specific cpu addresses
	ResetVector  uint16
	IRQVector    uint16
	NMIVector    uint16
	CHRData      []uint8 // CHR ROM initial data
	TrainerData  []uint8 // Trainer data (if HasTrainer is true)
}

// TestROMBuilder provides a fluent interface for building test ROMs
type TestROMBuilder struct {
	config TestROMConfig
}

// NewTestROMBuilder creates a new test ROM builder with default configuration
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		config: TestROMConfig{
			PRGSize:     1,
			CHRSize:     1,
			Mirroring:   MirrorHorizontal,
			InitialData: make(map[uint16]uint8),
			ResetVector: 0x8000,
			IRQVector:   0x8000,
			NMIVector:   0x8000,
		},
	}
}

// WithPRGSize sets the PRG ROM size in 16KB units
func (b *TestROMBuilder) WithPRGSize(size uint8) *TestROMBuilder {
	b.config.PRGSize = size
	return b
}

// WithCHRSize sets the CHR ROM size in 8KB units (0 = CHR RAM)
func (b *TestROMBuilder) WithCHRSize(size uint8) *TestROMBuilder {
	b.config.CHRSize = size
	return b
}

// WithCHRRAM configures the ROM to use CHR RAM instead of CHR ROM
func (b *TestROMBuilder) WithCHRRAM() *TestROMBuilder {
	b.config.CHRSize = 0
	return b
}

// WithMapper sets the mapper ID
func (b *TestROMBuilder) WithMapper(mapperID uint8) *TestROMBuilder {
	b.config.MapperID = mapperID
	return b
}

// WithMirroring sets the nametable mirroring mode
func (b *TestROMBuilder) WithMirroring(mirroring MirrorMode) *TestROMBuilder {
	b.config.Mirroring = mirroring
	return b
}

// WithBattery enables battery-backed SRAM
func (b *TestROMBuilder) WithBattery() *TestROMBuilder {
	b.config.HasBattery = true
	return b
}

// WithTrainer adds a 512-byte trainer
func (b *TestROMBuilder) WithTrainer(data []uint8) *TestROMBuilder {
	b.config.HasTrainer = true
	b.config.TrainerData = make([]uint8, 512)
	copy(b.config.TrainerData, data)
	return b
}

// WithInstructions sets the program placed at the reset vector
func (b *TestROMBuilder) WithInstructions(instructions []uint8) *TestROMBuilder {
	b.config.Instructions = append([]uint8(nil), instructions...)
	return b
}

// WithData sets bytes at a cpu address in the $8000-$FFFF window
func (b *TestROMBuilder) WithData(address uint16, data []uint8) *TestROMBuilder {
	for i, value := range data {
		b.config.InitialData[address+uint16(i)] = value
	}
	return b
}

// WithResetVector sets the reset vector
func (b *TestROMBuilder) WithResetVector(address uint16) *TestROMBuilder {
	b.config.ResetVector = address
	return b
}

// WithIRQVector sets the IRQ vector
func (b *TestROMBuilder) WithIRQVector(address uint16) *TestROMBuilder {
	b.config.IRQVector = address
	return b
}

// WithNMIVector sets the NMI vector
func (b *TestROMBuilder) WithNMIVector(address uint16) *TestROMBuilder {
	b.config.NMIVector = address
	return b
}

// WithCHRData sets the CHR ROM data
func (b *TestROMBuilder) WithCHRData(data []uint8) *TestROMBuilder {
	b.config.CHRData = append([]uint8(nil), data...)
	return b
}

// Build generates the ROM data based on the current configuration
func (b *TestROMBuilder) Build() ([]byte, error) {
	return GenerateTestROM(b.config)
}

// BuildCartridge generates and loads the ROM as a cartridge
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	rom, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromBytes("test.nes", rom)
}

// GenerateTestROM creates a ROM image based on the provided configuration.
// Program and data addresses are placed in the last 32KB of PRG, so they are
// visible at reset on every supported mapper.
func GenerateTestROM(config TestROMConfig) ([]byte, error) {
	if config.PRGSize == 0 {
		return nil, fmt.Errorf("PRG ROM size cannot be zero")
	}

	header := make([]byte, 16)
	copy(header[0:4], "NES\x1A")
	header[4] = config.PRGSize
	header[5] = config.CHRSize

	flags6 := (config.MapperID & 0x0F) << 4
	if config.Mirroring == MirrorVertical {
		flags6 |= 0x01
	}
	if config.HasBattery {
		flags6 |= 0x02
	}
	if config.HasTrainer {
		flags6 |= 0x04
	}
	if config.Mirroring == MirrorFourScreen {
		flags6 |= 0x08
	}
	header[6] = flags6
	header[7] = config.MapperID & 0xF0

	result := append([]byte{}, header...)
	if config.HasTrainer {
		trainer := make([]uint8, 512)
		copy(trainer, config.TrainerData)
		result = append(result, trainer...)
	}

	size := int(config.PRGSize) * 16384
	prg := make([]byte, size)
	window := size
	if window > 0x8000 {
		window = 0x8000
	}
	base := size - window
	place := func(addr uint16, v uint8) {
		prg[base+int(addr-0x8000)%window] = v
	}

	if len(config.Instructions) > window-6 {
		return nil, fmt.Errorf("instructions too large for PRG ROM")
	}
	for i, v := range config.Instructions {
		place(config.ResetVector+uint16(i), v)
	}
	for addr, v := range config.InitialData {
		if addr >= 0x8000 {
			place(addr, v)
		}
	}

	vectors := []uint16{config.NMIVector, config.ResetVector, config.IRQVector}
	for i, v := range vectors {
		prg[size-6+i*2] = uint8(v)
		prg[size-5+i*2] = uint8(v >> 8)
	}
	result = append(result, prg...)

	if config.CHRSize > 0 {
		chr := make([]byte, int(config.CHRSize)*8192)
		copy(chr, config.CHRData)
		result = append(result, chr...)
	}
	return result, nil
}
