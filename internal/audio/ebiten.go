//go:build !headless

package audio

import (
	"fmt"
	"log"
	"time"

	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// EbitenPlayer plays the ring through the ebitengine audio context. It is
// used by the windowed frontend, which already runs an ebitengine game loop.
type EbitenPlayer struct {
	ring   *RingBuffer
	stream *pcmStream
	player *ebaudio.Player
}

// NewEbitenPlayer creates a player for ring at sampleRate. Only one
// ebitengine audio context may exist per process, so an existing one is
// reused when its rate matches.
func NewEbitenPlayer(ring *RingBuffer, sampleRate int, latency time.Duration) (*EbitenPlayer, error) {
	ctx := ebaudio.CurrentContext()
	if ctx == nil {
		ctx = ebaudio.NewContext(sampleRate)
	} else if ctx.SampleRate() != sampleRate {
		return nil, fmt.Errorf("audio: ebitengine context already running at %d Hz", ctx.SampleRate())
	}

	stream := newPCMStream(ring)
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to create ebitengine player: %w", err)
	}
	if latency > 0 {
		player.SetBufferSize(latency)
	}

	log.Printf("[AUDIO] ebitengine output at %d Hz, %v buffer", sampleRate, latency)
	return &EbitenPlayer{ring: ring, stream: stream, player: player}, nil
}

// Play starts pulling samples
func (p *EbitenPlayer) Play() {
	p.player.Play()
}

// Pause stops pulling samples; the ring keeps filling and drops on overflow
func (p *EbitenPlayer) Pause() {
	p.player.Pause()
}

// Underruns returns how many frames were padded because the ring ran dry
func (p *EbitenPlayer) Underruns() uint64 {
	return p.stream.underruns.Load()
}

// Close stops playback
func (p *EbitenPlayer) Close() error {
	return p.player.Close()
}
