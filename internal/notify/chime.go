package notify

import (
	"context"
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*Chime)(nil)

// Audio parameters shared by the renderer and the oto sink.
const (
	SampleRate   = 24000
	ChannelCount = 1
)

// fadeSamples ramps each tone in and out to avoid clicks.
const fadeSamples = 120

// Tone is one note of a chime. A zero frequency is a rest.
type Tone struct {
	Freq     float64
	Duration time.Duration
}

// Pattern is a sequence of tones played back to back.
type Pattern []Tone

var (
	// NoticePattern is a single short ping, played when a drink is ready.
	NoticePattern = Pattern{{Freq: 880, Duration: 120 * time.Millisecond}}

	// AlarmPattern is played for stalls and other alerts.
	AlarmPattern = Pattern{
		{Freq: 988, Duration: 150 * time.Millisecond},
		{Duration: 80 * time.Millisecond},
		{Freq: 988, Duration: 150 * time.Millisecond},
		{Duration: 80 * time.Millisecond},
		{Freq: 740, Duration: 300 * time.Millisecond},
	}
)

// Sink plays raw 16-bit little-endian PCM. Play blocks until playback
// finishes.
type Sink interface {
	Play(pcm []byte) error
}

// ChimeOption configures the chime.
type ChimeOption func(*Chime)

// WithChimeQueueSize sets how many patterns may wait for playback.
func WithChimeQueueSize(n int) ChimeOption {
	return func(c *Chime) {
		if n > 0 {
			c.queue = make(chan Pattern, n)
		}
	}
}

// WithVolume sets the output amplitude in [0, 1].
func WithVolume(v float64) ChimeOption {
	return func(c *Chime) {
		c.volume = math.Max(0, math.Min(1, v))
	}
}

// Chime turns notifications into short tones. Notify and NotifyUrgent
// never block: patterns are queued and played by Run, and dropped when
// the queue is full.
type Chime struct {
	sink    Sink
	log     *logger.Logger
	volume  float64
	queue   chan Pattern
	dropped atomic.Int64
}

// NewChime creates a chime playing through sink.
func NewChime(sink Sink, log *logger.Logger, opts ...ChimeOption) *Chime {
	c := &Chime{
		sink:   sink,
		log:    log,
		volume: 0.4,
		queue:  make(chan Pattern, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify queues the notice ping. The message is not played.
func (c *Chime) Notify(ctx context.Context, message string) error {
	c.enqueue(NoticePattern)
	return nil
}

// NotifyUrgent queues the alarm pattern.
func (c *Chime) NotifyUrgent(ctx context.Context, message string) error {
	c.enqueue(AlarmPattern)
	return nil
}

// Dropped returns how many patterns were discarded because the queue was
// full.
func (c *Chime) Dropped() int {
	return int(c.dropped.Load())
}

func (c *Chime) enqueue(p Pattern) {
	select {
	case c.queue <- p:
	default:
		c.dropped.Add(1)
		c.log.Debug("chime queue full, dropping pattern")
	}
}

// Run plays queued patterns one at a time until ctx is cancelled.
func (c *Chime) Run(ctx context.Context) error {
	c.log.Info("chime started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("chime stopped")
			return nil
		case p := <-c.queue:
			if err := c.sink.Play(Render(p, c.volume)); err != nil {
				c.log.Error("playing chime: %v", err)
			}
		}
	}
}

// Render synthesizes a pattern as mono 16-bit little-endian sine PCM.
func Render(p Pattern, volume float64) []byte {
	var total int
	for _, t := range p {
		total += samplesFor(t.Duration)
	}

	pcm := make([]byte, 0, total*2)
	for _, t := range p {
		n := samplesFor(t.Duration)
		for i := 0; i < n; i++ {
			var v float64
			if t.Freq > 0 {
				v = volume * envelope(i, n) * math.Sin(2*math.Pi*t.Freq*float64(i)/SampleRate)
			}
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(int16(v*math.MaxInt16)))
		}
	}
	return pcm
}

func samplesFor(d time.Duration) int {
	return int(math.Round(d.Seconds() * SampleRate))
}

func envelope(i, n int) float64 {
	fade := min(fadeSamples, n/2)
	switch {
	case fade == 0:
		return 1
	case i < fade:
		return float64(i) / float64(fade)
	case i >= n-fade:
		return float64(n-1-i) / float64(fade)
	default:
		return 1
	}
}
