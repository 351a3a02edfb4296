package debug

import (
	"fmt"
	"io"
	"strings"

	"nesemu/internal/bus"
)

// Reader reads one byte without side effects. ok is false for addresses
// nothing drives.
type Reader func(addr uint16) (value uint8, ok bool)

// HexDump writes length bytes starting at start, sixteen per row.
// Unreadable bytes print as "--".
func HexDump(w io.Writer, read Reader, start uint16, length int) {
	var line strings.Builder
	for row := 0; row < length; row += 16 {
		line.Reset()
		addr := start + uint16(row)
		fmt.Fprintf(&line, "%04X:", addr)
		var ascii [16]byte
		n := min(16, length-row)
		for i := 0; i < 16; i++ {
			if i == 8 {
				line.WriteByte(' ')
			}
			if i >= n {
				line.WriteString("   ")
				ascii[i] = ' '
				continue
			}
			v, ok := read(addr + uint16(i))
			switch {
			case !ok:
				line.WriteString(" --")
				ascii[i] = ' '
			default:
				fmt.Fprintf(&line, " %02X", v)
				ascii[i] = '.'
				if v >= 0x20 && v < 0x7F {
					ascii[i] = v
				}
			}
		}
		fmt.Fprintf(&line, "  |%s|\n", ascii[:n])
		io.WriteString(w, line.String())
	}
}

// CPUReader reads the CPU address space of a session
func CPUReader(b *bus.Bus) Reader {
	return b.MemoryDump
}

// PPUReader reads the PPU address space of a session
func PPUReader(b *bus.Bus) Reader {
	return func(addr uint16) (uint8, bool) {
		return b.PPUPeek(addr), true
	}
}

// DumpState writes the CPU and PPU registers, the APU status and the
// mapper registers
func DumpState(w io.Writer, b *bus.Bus) {
	fmt.Fprintf(w, "CPU  %s\n", b.CPUState())
	fmt.Fprintf(w, "PPU  %s\n", b.PPUState())
	fmt.Fprintf(w, "APU  STATUS:%02X CYC:%d\n", b.APU.Dump(), b.APU.Cycles)
	if b.Cart == nil {
		return
	}
	fmt.Fprintf(w, "CART mapper %d %s", b.Cart.MapperID(), b.Cart.Mirroring())
	for _, r := range b.Cart.Registers() {
		fmt.Fprintf(w, " %s:%02X", r.Name, r.Value)
	}
	fmt.Fprintln(w)
}
