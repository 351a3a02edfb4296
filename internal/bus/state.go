package bus

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"nesemu/internal/apu"
	"nesemu/internal/cartridge"
	"nesemu/internal/cpu"
	"nesemu/internal/input"
	"nesemu/internal/memory"
	"nesemu/internal/ppu"
)

const (
	stateMagic   = "NESEMU-STATE"
	stateVersion = 1
)

var (
	// ErrNoCartridge is returned when saving or loading without a cartridge
	ErrNoCartridge = errors.New("no cartridge inserted")
	// ErrStateFormat is returned for data that is not a save-state
	ErrStateFormat = errors.New("not a save-state")
	// ErrStateVersion is returned for a save-state from another version
	ErrStateVersion = errors.New("unsupported save-state version")
	// ErrStateCartridge is returned for a save-state of another game
	ErrStateCartridge = errors.New("save-state belongs to another cartridge")
)

type stateHeader struct {
	Magic   string
	Version uint32
}

// snapshot is everything needed to resume a session except the ROM data,
// which comes from the inserted cartridge
type snapshot struct {
	Hash string

	CPU   cpu.CPU
	PPU   ppu.PPU
	APU   apu.APU
	Board memory.Motherboard
	Input input.Ports

	Mapper   cartridge.Mapper
	Volatile cartridge.Volatile

	CPUClock   uint8
	PPUClock   uint8
	NMI        [3]bool
	PrevIRQ    bool
	FrameCount uint64
}

// SaveState writes the session to w
func (b *Bus) SaveState(w io.Writer) error {
	if b.Cart == nil {
		return ErrNoCartridge
	}
	snap := snapshot{
		Hash:       b.Cart.Hash(),
		CPU:        *b.CPU,
		PPU:        *b.PPU,
		APU:        *b.APU,
		Board:      *b.Board,
		Input:      *b.Input,
		Mapper:     b.Cart.Mapper(),
		Volatile:   b.Cart.Data().Volatile,
		CPUClock:   b.CPUClock,
		PPUClock:   b.PPUClock,
		NMI:        b.NMI,
		PrevIRQ:    b.PrevIRQ,
		FrameCount: b.frameCount,
	}

	enc := gob.NewEncoder(w)
	if err := enc.Encode(stateHeader{Magic: stateMagic, Version: stateVersion}); err != nil {
		return fmt.Errorf("encoding save-state header: %w", err)
	}
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("encoding save-state: %w", err)
	}
	return nil
}

// LoadState replaces the session with one written by SaveState. On error
// the running session is left untouched.
func (b *Bus) LoadState(r io.Reader) error {
	if b.Cart == nil {
		return ErrNoCartridge
	}

	dec := gob.NewDecoder(r)
	var hdr stateHeader
	if err := dec.Decode(&hdr); err != nil {
		return fmt.Errorf("decoding save-state header: %w", errors.Join(ErrStateFormat, err))
	}
	if hdr.Magic != stateMagic {
		return ErrStateFormat
	}
	if hdr.Version != stateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, hdr.Version)
	}

	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("decoding save-state: %w", err)
	}
	if snap.Hash != b.Cart.Hash() {
		return ErrStateCartridge
	}
	if snap.Mapper == nil {
		return fmt.Errorf("%w: missing mapper", ErrStateFormat)
	}

	b.apply(&snap)
	return nil
}

func (b *Bus) apply(snap *snapshot) {
	b.CPU.Restore(&snap.CPU)
	*b.PPU = snap.PPU

	rate := b.APU.SampleRate
	*b.APU = snap.APU
	if b.APU.SampleRate != rate {
		b.APU.SetSampleRate(rate)
	}

	b.Board.Restore(&snap.Board)
	for i := range b.Input.Controllers {
		c := &b.Input.Controllers[i]
		c.Buttons = snap.Input.Controllers[i].Buttons
		c.Shift = snap.Input.Controllers[i].Shift
		c.Strobe = snap.Input.Controllers[i].Strobe
	}

	b.Cart.SetMapper(snap.Mapper)
	b.Cart.RestoreVolatile(snap.Volatile)

	b.CPUClock = snap.CPUClock
	b.PPUClock = snap.PPUClock
	b.NMI = snap.NMI
	b.PrevIRQ = snap.PrevIRQ
	b.frameCount = snap.FrameCount
}
