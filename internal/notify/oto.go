package notify

import (
	"bytes"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Compile-time interface check.
var _ Sink = (*OtoSink)(nil)

// OtoSink plays PCM on the system audio device.
type OtoSink struct {
	ctx *oto.Context
	log *logger.Logger
}

// NewOtoSink initializes the system audio context. Returns an error if
// the audio device is unavailable. Only one may exist per process.
func NewOtoSink(log *logger.Logger) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio sink initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &OtoSink{ctx: ctx, log: log}, nil
}

// Play plays pcm synchronously.
func (s *OtoSink) Play(pcm []byte) error {
	player := s.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	s.log.Debug("audio sink: playing %d bytes of PCM", len(pcm))

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Close()
}
