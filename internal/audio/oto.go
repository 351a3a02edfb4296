package audio

import (
	"fmt"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays the ring straight through oto, for headless runs that
// still want sound and have no ebitengine game loop.
type OtoPlayer struct {
	ctx    *oto.Context
	stream *pcmStream
	player *oto.Player
}

// NewOtoPlayer opens the default audio device. It blocks until the device
// is ready.
func NewOtoPlayer(ring *RingBuffer, sampleRate int, latency time.Duration) (*OtoPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: failed to open oto context: %w", err)
	}
	<-ready

	stream := newPCMStream(ring)
	player := ctx.NewPlayer(stream)
	log.Printf("[AUDIO] oto output at %d Hz", sampleRate)
	return &OtoPlayer{ctx: ctx, stream: stream, player: player}, nil
}

// Play starts pulling samples
func (p *OtoPlayer) Play() {
	p.player.Play()
}

// Pause stops pulling samples
func (p *OtoPlayer) Pause() {
	p.player.Pause()
}

// Underruns returns how many frames were padded because the ring ran dry
func (p *OtoPlayer) Underruns() uint64 {
	return p.stream.underruns.Load()
}

// Close stops playback and suspends the device
func (p *OtoPlayer) Close() error {
	err := p.player.Close()
	if serr := p.ctx.Suspend(); err == nil {
		err = serr
	}
	return err
}
