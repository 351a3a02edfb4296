package graphics

// VideoProcessor converts RGB frames to RGBA with brightness, contrast and
// saturation applied. A frame holds only a few hundred distinct colors, so
// adjusted colors are cached.
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32

	cache map[uint32]uint32
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
		cache:      make(map[uint32]uint32),
	}
}

func (vp *VideoProcessor) identity() bool {
	return vp.brightness == 1 && vp.contrast == 1 && vp.saturation == 1
}

// Process writes frame into dst as RGBA. dst must hold four bytes per
// pixel.
func (vp *VideoProcessor) Process(dst []uint8, frame *Frame) {
	identity := vp.identity()
	for i, j := 0, 0; i < len(frame); i, j = i+3, j+4 {
		r, g, b := frame[i], frame[i+1], frame[i+2]
		if !identity {
			r, g, b = vp.adjust(r, g, b)
		}
		dst[j] = r
		dst[j+1] = g
		dst[j+2] = b
		dst[j+3] = 0xFF
	}
}

func (vp *VideoProcessor) adjust(r, g, b uint8) (uint8, uint8, uint8) {
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if c, ok := vp.cache[key]; ok {
		return uint8(c >> 16), uint8(c >> 8), uint8(c)
	}

	fr, fg, fb := float32(r)/255, float32(g)/255, float32(b)/255

	fr, fg, fb = fr*vp.brightness, fg*vp.brightness, fb*vp.brightness

	fr = (fr-0.5)*vp.contrast + 0.5
	fg = (fg-0.5)*vp.contrast + 0.5
	fb = (fb-0.5)*vp.contrast + 0.5

	// Rec. 601 luma
	luma := 0.299*fr + 0.587*fg + 0.114*fb
	fr = luma + (fr-luma)*vp.saturation
	fg = luma + (fg-luma)*vp.saturation
	fb = luma + (fb-luma)*vp.saturation

	or, og, ob := toByte(fr), toByte(fg), toByte(fb)
	vp.cache[key] = uint32(or)<<16 | uint32(og)<<8 | uint32(ob)
	return or, og, ob
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
	clear(vp.cache)
}

// SetContrast updates the contrast value
func (vp *VideoProcessor) SetContrast(contrast float32) {
	vp.contrast = contrast
	clear(vp.cache)
}

// SetSaturation updates the saturation value
func (vp *VideoProcessor) SetSaturation(saturation float32) {
	vp.saturation = saturation
	clear(vp.cache)
}
