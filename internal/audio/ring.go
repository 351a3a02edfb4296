// Package audio moves samples from the emulation thread to an audio device
// or file. The emulation thread is the only producer and never blocks.
package audio

import (
	"sync/atomic"
)

// RingBuffer is a lock-free single-producer single-consumer queue of
// samples. Push is called from the emulation goroutine only and Pop from
// one consumer goroutine only.
type RingBuffer struct {
	buf  []float32
	mask uint64
	// head is the next slot to write, tail the next slot to read. Both
	// only ever increase; the difference is the fill level.
	head atomic.Uint64
	tail atomic.Uint64
}

// NewRingBuffer creates a ring holding at least size samples. The capacity
// is rounded up to a power of two.
func NewRingBuffer(size int) *RingBuffer {
	n := 1
	for n < size {
		n <<= 1
	}
	return &RingBuffer{
		buf:  make([]float32, n),
		mask: uint64(n - 1),
	}
}

// Push stores a sample and reports false, dropping it, when the ring is full
func (r *RingBuffer) Push(v float32) bool {
	head := r.head.Load()
	if head-r.tail.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[head&r.mask] = v
	r.head.Store(head + 1)
	return true
}

// Pop removes the oldest sample
func (r *RingBuffer) Pop() (float32, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	v := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return v, true
}

// PopSlice fills dst with the oldest samples and returns how many were read
func (r *RingBuffer) PopSlice(dst []float32) int {
	tail := r.tail.Load()
	avail := r.head.Load() - tail
	n := uint64(len(dst))
	if avail < n {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		dst[i] = r.buf[(tail+i)&r.mask]
	}
	r.tail.Store(tail + n)
	return int(n)
}

// Len returns the number of buffered samples
func (r *RingBuffer) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the capacity in samples
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// MultiSink pushes every sample to several sinks, for playing and
// recording at the same time
type MultiSink []interface{ Push(float32) bool }

// Push implements apu.Sink. It reports false if any sink dropped the sample.
func (m MultiSink) Push(v float32) bool {
	ok := true
	for _, s := range m {
		if !s.Push(v) {
			ok = false
		}
	}
	return ok
}
