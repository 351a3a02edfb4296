// Package debug holds inspection helpers: memory and register dumps, PNG
// frame dumps, a graphviz dump of the session structure and a runtime
// stats server.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"nesemu/internal/ppu"
)

// Frame is the PPU output, three bytes per pixel
type Frame = [ppu.Width * ppu.Height * 3]uint8

// FrameImage converts frame to an image, cropped to region. An empty
// region keeps the whole frame.
func FrameImage(frame *Frame, region image.Rectangle) *image.RGBA {
	full := image.Rect(0, 0, ppu.Width, ppu.Height)
	if region.Empty() {
		region = full
	}
	region = region.Intersect(full)

	img := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			src := (y*ppu.Width + x) * 3
			dst := img.PixOffset(x-region.Min.X, y-region.Min.Y)
			img.Pix[dst] = frame[src]
			img.Pix[dst+1] = frame[src+1]
			img.Pix[dst+2] = frame[src+2]
			img.Pix[dst+3] = 0xFF
		}
	}
	return img
}

// WritePNG encodes frame as a PNG image
func WritePNG(w io.Writer, frame *Frame) error {
	return png.Encode(w, FrameImage(frame, image.Rectangle{}))
}

// SavePNG writes frame to a PNG file, creating its directory
func SavePNG(path string, frame *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WritePNG(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// FrameDumper writes every Nth frame to a PNG file, up to a limit
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumped       int
	maxDumps     int
	dumpInterval uint64
	region       image.Rectangle
}

// NewFrameDumper creates a disabled frame dumper writing to outputDir
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// Enable activates frame dumping
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return fmt.Errorf("creating frame dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// SetMaxDumps sets the maximum number of frames to dump. Zero means no
// limit.
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	fd.dumpInterval = uint64(interval)
}

// SetRegion crops dumps to r
func (fd *FrameDumper) SetRegion(r image.Rectangle) {
	fd.region = r
}

// Dumped returns the number of files written
func (fd *FrameDumper) Dumped() int {
	return fd.dumped
}

// DumpFrame writes frame when frameNum is due. It returns the file name,
// or "" when nothing was written.
func (fd *FrameDumper) DumpFrame(frame *Frame, frameNum uint64) (string, error) {
	if !fd.dumpEnabled || frameNum%fd.dumpInterval != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumped >= fd.maxDumps {
		return "", nil
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.png", frameNum))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating frame dump: %w", err)
	}
	if err := png.Encode(f, FrameImage(frame, fd.region)); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding frame dump: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	fd.dumped++
	return path, nil
}
