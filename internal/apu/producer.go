package apu

// Sink receives audio samples. Push must not block; it returns false when
// the sample could not be stored.
type Sink interface {
	Push(sample float32) bool
}

// Producer decimates the per-cycle sample stream down to the output rate
// with a fractional accumulator. There is no resampling filter beyond the
// low-pass the APU runs first.
type Producer struct {
	Interval float32
	Counter  float32
	Dropped  uint64
}

// NewProducer creates a producer for an output rate fed at clockRate
func NewProducer(clockRate, sampleRate float64) Producer {
	return Producer{Interval: float32(clockRate / sampleRate)}
}

// Feed offers one input sample and forwards it to sink when the
// accumulator crosses the interval. Failed pushes are counted and dropped.
func (p *Producer) Feed(sink Sink, sample float32) {
	p.Counter++
	if p.Counter < p.Interval {
		return
	}
	p.Counter -= p.Interval
	if !sink.Push(sample) {
		p.Dropped++
	}
}
