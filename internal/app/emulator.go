package app

import (
	"fmt"
	"math"
	"time"

	"nesemu/internal/bus"
	"nesemu/internal/cpu"
)

// fastForwardFrames is how many frames one update runs while fast-forward
// is held
const fastForwardFrames = 4

// Emulator runs whole frames of the session and keeps timing statistics
type Emulator struct {
	bus *bus.Bus

	targetFrameTime time.Duration
	fastForward     bool

	// Performance monitoring
	emulationTime    time.Duration
	averageFrameTime time.Duration
	frameTimes       *CircularTimingBuffer
	frameCount       uint64

	isRunning     bool
	lastResetTime time.Time
}

// EmulatorStats contains emulator performance statistics
type EmulatorStats struct {
	FrameCount       uint64
	EmulationTime    time.Duration
	AverageFrameTime time.Duration
	FrameJitter      time.Duration
	TargetFrameTime  time.Duration
	EmulationSpeed   float64
	Uptime           time.Duration
	IsRunning        bool
}

// NewEmulator creates a stopped emulator for b running at frameRate
func NewEmulator(b *bus.Bus, frameRate float64) *Emulator {
	e := &Emulator{
		bus:        b,
		frameTimes: NewCircularTimingBuffer(180),
	}
	e.SetTargetFrameRate(frameRate)
	e.Reset()
	return e
}

// Reset clears the statistics
func (e *Emulator) Reset() {
	e.emulationTime = 0
	e.averageFrameTime = 0
	e.frameCount = 0
	e.frameTimes.Reset()
	e.lastResetTime = time.Now()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// SetFastForward makes every update run several frames
func (e *Emulator) SetFastForward(enabled bool) {
	e.fastForward = enabled
}

// IsFastForward reports whether fast-forward is on
func (e *Emulator) IsFastForward() bool {
	return e.fastForward
}

// Update runs one frame, or several while fast-forwarding. A stopped
// emulator does nothing.
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}
	n := 1
	if e.fastForward {
		n = fastForwardFrames
	}
	for i := 0; i < n; i++ {
		if err := e.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

// StepFrame executes exactly one frame of emulation
func (e *Emulator) StepFrame() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	start := time.Now()
	e.bus.RunFrame()
	e.frameCount++

	e.emulationTime = time.Since(start)
	e.frameTimes.Add(e.emulationTime)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
	} else {
		e.averageFrameTime = time.Duration(float64(e.averageFrameTime)*0.95 + float64(e.emulationTime)*0.05)
	}
	return nil
}

// StepInstruction executes one CPU instruction
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}
	e.bus.Step()
	return nil
}

// GetCPUState returns the current CPU state for debugging
func (e *Emulator) GetCPUState() cpu.State {
	return e.bus.CPUState()
}

// GetPPUState returns the current PPU state for debugging
func (e *Emulator) GetPPUState() bus.PPUState {
	return e.bus.PPUState()
}

// GetFrameCount returns the number of frames run since the last reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetEmulationTime returns the time spent in emulation for the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetAverageFrameTime returns the average emulation time of a frame
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetTargetFrameTime returns the real time of one console frame
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// SetTargetFrameRate sets the target frame rate
func (e *Emulator) SetTargetFrameRate(fps float64) {
	if fps > 0 {
		e.targetFrameTime = time.Duration(float64(time.Second) / fps)
	}
}

// GetEmulationSpeed returns how many times faster than real time the
// emulation could run, as a percentage
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.averageFrameTime == 0 {
		return 0.0
	}
	return float64(e.targetFrameTime) / float64(e.averageFrameTime) * 100.0
}

// GetUptime returns the emulator uptime since last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// GetPerformanceStats returns the timing statistics
func (e *Emulator) GetPerformanceStats() EmulatorStats {
	return EmulatorStats{
		FrameCount:       e.frameCount,
		EmulationTime:    e.emulationTime,
		AverageFrameTime: e.averageFrameTime,
		FrameJitter:      e.frameTimes.GetStdDev(),
		TargetFrameTime:  e.targetFrameTime,
		EmulationSpeed:   e.GetEmulationSpeed(),
		Uptime:           e.GetUptime(),
		IsRunning:        e.isRunning,
	}
}

// Cleanup stops the emulator
func (e *Emulator) Cleanup() error {
	e.Stop()
	return nil
}

// CircularTimingBuffer keeps the last few timing measurements
type CircularTimingBuffer struct {
	buffer []time.Duration
	index  int
	size   int
}

// NewCircularTimingBuffer creates a buffer holding capacity measurements
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{buffer: make([]time.Duration, capacity)}
}

// Add records a measurement, overwriting the oldest when full
func (ctb *CircularTimingBuffer) Add(d time.Duration) {
	ctb.buffer[ctb.index] = d
	ctb.index = (ctb.index + 1) % len(ctb.buffer)
	if ctb.size < len(ctb.buffer) {
		ctb.size++
	}
}

// Len returns the number of measurements held
func (ctb *CircularTimingBuffer) Len() int {
	return ctb.size
}

// GetAverage returns the mean of the measurements
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	if ctb.size == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ctb.buffer[:ctb.size] {
		sum += d
	}
	return sum / time.Duration(ctb.size)
}

// GetStdDev returns the standard deviation of the measurements
func (ctb *CircularTimingBuffer) GetStdDev() time.Duration {
	if ctb.size < 2 {
		return 0
	}
	avg := float64(ctb.GetAverage())
	var sum float64
	for _, d := range ctb.buffer[:ctb.size] {
		diff := float64(d) - avg
		sum += diff * diff
	}
	return time.Duration(math.Sqrt(sum / float64(ctb.size)))
}

// Reset forgets all measurements
func (ctb *CircularTimingBuffer) Reset() {
	ctb.index = 0
	ctb.size = 0
}

// framePacer sleeps between frames so a backend without vsync runs at the
// console's speed
type framePacer struct {
	interval time.Duration
	next     time.Time
	sleep    func(time.Duration)
	now      func() time.Time
}

func newFramePacer(interval time.Duration) *framePacer {
	return &framePacer{interval: interval, sleep: time.Sleep, now: time.Now}
}

// Wait blocks until the next frame is due. Falling more than a few frames
// behind drops the backlog instead of running to catch up.
func (p *framePacer) Wait() {
	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > 4*p.interval {
		p.next = now
	}
	p.next = p.next.Add(p.interval)
	if d := p.next.Sub(now); d > 0 {
		p.sleep(d)
	}
}
