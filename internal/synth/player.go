package synth

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/smazurov/padnode/internal/logging"
)

// Player streams a synth to the default audio device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open starts playback of src. Without an audio device the error is
// logged and a nil Player is returned, so callers can run silently.
func Open(src io.Reader, logger logging.Logger) *Player {
	p, err := open(src)
	if err != nil {
		logger.Warn("Audio unavailable, piano is silent", "error", err)
		return nil
	}
	logger.Info("Audio output started", "sample_rate", SampleRate)
	return p
}

func open(src io.Reader) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	<-ready
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	player := ctx.NewPlayer(src)
	player.Play()
	return &Player{ctx: ctx, player: player}, nil
}

// Close stops playback. It is safe on a nil Player.
func (p *Player) Close() error {
	if p == nil {
		return nil
	}
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.ctx.Suspend()
}
