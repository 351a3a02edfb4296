package audio

import (
	"encoding/binary"
	"sync/atomic"
)

// bytesPerFrame is one 16-bit little endian stereo frame
const bytesPerFrame = 4

func toInt16(v float32) int16 {
	v = min(max(v, -1), 1)
	return int16(v * 32767)
}

// pcmStream turns the mono float samples in a ring into the 16-bit stereo
// byte stream audio devices pull from. When the ring runs dry the last
// sample is held so an underrun does not click.
type pcmStream struct {
	ring    *RingBuffer
	last    int16
	scratch []float32
	// underruns counts frames that had to be padded. Read runs on the
	// device goroutine, so it is read back atomically.
	underruns atomic.Uint64
}

func newPCMStream(ring *RingBuffer) *pcmStream {
	return &pcmStream{ring: ring}
}

// Read implements io.Reader
func (s *pcmStream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if cap(s.scratch) < frames {
		s.scratch = make([]float32, frames)
	}
	got := s.ring.PopSlice(s.scratch[:frames])
	if got < frames {
		s.underruns.Add(uint64(frames - got))
	}

	for i := 0; i < frames; i++ {
		if i < got {
			s.last = toInt16(s.scratch[i])
		}
		off := i * bytesPerFrame
		binary.LittleEndian.PutUint16(p[off:], uint16(s.last))
		binary.LittleEndian.PutUint16(p[off+2:], uint16(s.last))
	}
	return frames * bytesPerFrame, nil
}
