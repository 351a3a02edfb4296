//go:build headless

package audio

import (
	"errors"
	"time"
)

var errNoEbitengine = errors.New("audio: ebitengine output not available in headless build")

// EbitenPlayer stub for headless builds
type EbitenPlayer struct{}

// NewEbitenPlayer always fails in headless builds; use the oto driver
func NewEbitenPlayer(ring *RingBuffer, sampleRate int, latency time.Duration) (*EbitenPlayer, error) {
	return nil, errNoEbitengine
}

func (p *EbitenPlayer) Play()             {}
func (p *EbitenPlayer) Pause()            {}
func (p *EbitenPlayer) Underruns() uint64 { return 0 }
func (p *EbitenPlayer) Close() error      { return nil }
