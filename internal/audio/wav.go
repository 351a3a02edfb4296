package audio

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavRecorder drains a ring into a 16-bit mono wav file
type WavRecorder struct {
	ring    *RingBuffer
	file    *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	scratch []float32
	written int
}

// NewWavRecorder creates path and prepares the encoder
func NewWavRecorder(path string, sampleRate int, ring *RingBuffer) (*WavRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return &WavRecorder{
		ring: ring,
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
		scratch: make([]float32, 4096),
	}, nil
}

// Drain encodes everything currently in the ring
func (w *WavRecorder) Drain() error {
	for {
		n := w.ring.PopSlice(w.scratch)
		if n == 0 {
			return nil
		}
		w.buf.Data = w.buf.Data[:0]
		for _, v := range w.scratch[:n] {
			w.buf.Data = append(w.buf.Data, int(toInt16(v)))
		}
		if err := w.enc.Write(w.buf); err != nil {
			return fmt.Errorf("wav: %w", err)
		}
		w.written += n
	}
}

// Run drains the ring every interval until ctx is cancelled, then closes
// the file
func (w *WavRecorder) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case <-ticker.C:
			if err := w.Drain(); err != nil {
				w.Close()
				return err
			}
		}
	}
}

// Samples returns how many samples were written so far
func (w *WavRecorder) Samples() int {
	return w.written
}

// Close drains what is left, finalises the header and closes the file
func (w *WavRecorder) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.Drain()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	log.Printf("[AUDIO] wrote %d samples to %s", w.written, w.file.Name())
	w.file = nil
	return err
}
