package graphics

import "testing"

func TestVideoProcessorIdentity(t *testing.T) {
	var frame Frame
	frame[0], frame[1], frame[2] = 10, 200, 30
	frame[len(frame)-3] = 255

	vp := NewVideoProcessor(1, 1, 1)
	dst := make([]uint8, len(frame)/3*4)
	vp.Process(dst, &frame)

	if dst[0] != 10 || dst[1] != 200 || dst[2] != 30 || dst[3] != 0xFF {
		t.Errorf("first pixel = %v", dst[:4])
	}
	if dst[len(dst)-4] != 255 || dst[len(dst)-1] != 0xFF {
		t.Errorf("last pixel = %v", dst[len(dst)-4:])
	}
}

func TestVideoProcessorAdjust(t *testing.T) {
	tests := []struct {
		name                   string
		brightness, con, sat   float32
		in                     [3]uint8
		want                   [3]uint8
	}{
		{"dark", 0.5, 1, 1, [3]uint8{200, 100, 50}, [3]uint8{100, 50, 25}},
		{"clipped", 2, 1, 1, [3]uint8{200, 100, 0}, [3]uint8{255, 200, 0}},
		{"grey", 1, 1, 0, [3]uint8{255, 0, 0}, [3]uint8{76, 76, 76}},
		{"flat", 1, 0, 1, [3]uint8{0, 255, 10}, [3]uint8{128, 128, 128}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewVideoProcessor(tt.brightness, tt.con, tt.sat)
			r, g, b := vp.adjust(tt.in[0], tt.in[1], tt.in[2])
			if got := [3]uint8{r, g, b}; got != tt.want {
				t.Errorf("adjust(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if len(vp.cache) != 1 {
				t.Errorf("cache holds %d colors", len(vp.cache))
			}
		})
	}
}

func TestVideoProcessorSettersClearCache(t *testing.T) {
	vp := NewVideoProcessor(0.5, 1, 1)
	vp.adjust(100, 100, 100)
	vp.SetBrightness(1)
	if len(vp.cache) != 0 {
		t.Fatal("cache kept colors of the old setting")
	}
	if r, _, _ := vp.adjust(100, 100, 100); r != 100 {
		t.Errorf("r = %d after SetBrightness(1)", r)
	}
}
