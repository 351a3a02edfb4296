package ppu

import "testing"

func TestPaletteExtremes(t *testing.T) {
	for _, c := range []int{0x0D, 0x0E, 0x0F, 0x1E, 0x1F, 0x2E, 0x3F} {
		if Palette[c] != (RGB{}) {
			t.Errorf("colour %02X = %v, want black", c, Palette[c])
		}
	}
	for _, c := range []int{0x20, 0x30} {
		if Palette[c] != (RGB{255, 255, 255}) {
			t.Errorf("colour %02X = %v, want white", c, Palette[c])
		}
	}
}

func TestPaletteGreysAreNeutral(t *testing.T) {
	for _, c := range []int{0x00, 0x10} {
		rgb := Palette[c]
		if rgb[0] != rgb[1] || rgb[1] != rgb[2] {
			t.Errorf("colour %02X = %v, want a neutral grey", c, rgb)
		}
	}
	if Palette[0x00][0] >= Palette[0x10][0] {
		t.Error("grey levels should increase with luminance")
	}
}

func TestPaletteHues(t *testing.T) {
	red := Palette[0x16]
	if red[0] <= red[1] || red[0] <= red[2] {
		t.Errorf("colour 16 = %v, want red dominant", red)
	}
	blue := Palette[0x12]
	if blue[2] <= blue[0] || blue[2] <= blue[1] {
		t.Errorf("colour 12 = %v, want blue dominant", blue)
	}
}

func TestEmphasisDarkens(t *testing.T) {
	full := palettes[7][0x30]
	if full[0] >= Palette[0x30][0] {
		t.Errorf("emphasised white %v should be darker than %v", full, Palette[0x30])
	}
	if palettes[0] != Palette {
		t.Error("palette with no emphasis should match Palette")
	}
}
