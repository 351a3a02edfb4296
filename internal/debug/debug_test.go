package debug

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
)

func TestHexDump(t *testing.T) {
	read := func(addr uint16) (uint8, bool) {
		if addr == 0x0005 {
			return 0, false
		}
		return uint8(addr) + 0x40, true
	}
	var out strings.Builder
	HexDump(&out, read, 0x0000, 20)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	want := "0000: 40 41 42 43 44 -- 46 47  48 49 4A 4B 4C 4D 4E 4F  |@ABCD FGHIJKLMNO|"
	if lines[0] != want {
		t.Errorf("row 0:\n got %q\nwant %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "0010: 50 51 52 53") || !strings.HasSuffix(lines[1], "|PQRS|") {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func testFrame() *Frame {
	var f Frame
	for i := range f {
		f[i] = uint8(i)
	}
	return &f
}

func TestFrameImageCrop(t *testing.T) {
	f := testFrame()
	img := FrameImage(f, image.Rect(10, 20, 14, 22))
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}
	src := (20*256 + 10) * 3
	if c := img.RGBAAt(0, 0); c.R != f[src] || c.G != f[src+1] || c.B != f[src+2] || c.A != 0xFF {
		t.Errorf("pixel = %v", c)
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	f := testFrame()
	var buf bytes.Buffer
	if err := WritePNG(&buf, f); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 240 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, _ := img.At(255, 239).RGBA()
	i := (239*256 + 255) * 3
	if uint8(r>>8) != f[i] || uint8(g>>8) != f[i+1] || uint8(b>>8) != f[i+2] {
		t.Error("last pixel differs")
	}
}

func TestFrameDumperIntervalAndLimit(t *testing.T) {
	dir := t.TempDir()
	fd := NewFrameDumper(filepath.Join(dir, "frames"))
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(2)

	f := testFrame()
	if name, _ := fd.DumpFrame(f, 0); name != "" {
		t.Fatal("a disabled dumper wrote a file")
	}
	if err := fd.Enable(); err != nil {
		t.Fatal(err)
	}
	var written []string
	for n := uint64(1); n <= 8; n++ {
		name, err := fd.DumpFrame(f, n)
		if err != nil {
			t.Fatal(err)
		}
		if name != "" {
			written = append(written, filepath.Base(name))
		}
	}
	if len(written) != 2 || written[0] != "frame_000002.png" || written[1] != "frame_000004.png" {
		t.Errorf("written = %v", written)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "frames"))
	if len(entries) != 2 || fd.Dumped() != 2 {
		t.Errorf("%d files, Dumped() = %d", len(entries), fd.Dumped())
	}
}

func TestWriteStateGraph(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	n := &node{Name: "a", Next: &node{Name: "b"}}
	var out bytes.Buffer
	WriteStateGraph(&out, n)
	if !strings.Contains(out.String(), "digraph") {
		t.Errorf("not a dot graph:\n%s", out.String())
	}
}

func TestDumpState(t *testing.T) {
	cart, err := cartridge.NewTestROMBuilder().
		WithMapper(1).
		WithInstructions([]uint8{0x4C, 0x00, 0x80}).
		BuildCartridge()
	if err != nil {
		t.Fatal(err)
	}
	b := bus.New(bus.Config{})
	b.LoadCartridge(cart)
	b.Step()

	var out strings.Builder
	DumpState(&out, b)
	for _, want := range []string{"CPU  PC:8000", "PPU  SL:", "APU  STATUS:", "CART mapper 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in\n%s", want, out.String())
		}
	}

	var mem strings.Builder
	HexDump(&mem, CPUReader(b), 0xFFFC, 4)
	if !strings.HasPrefix(mem.String(), "FFFC: 00 80") {
		t.Errorf("reset vector dump = %q", mem.String())
	}
}
