package gateway

import (
	"sync/atomic"

	"github.com/hammamikhairi/ottobar/internal/logger"
)

// DefaultInboxSize bounds each queue of the inbox.
const DefaultInboxSize = 8

// ReplyFunc sends a REQUEST answer back to the peer.
type ReplyFunc func(payload []byte)

// Envelope is a parsed command waiting for the dispatch loop.
type Envelope struct {
	Command Command
	Reply   ReplyFunc
}

// Inbox hands commands from transport goroutines to the dispatch loop.
// Reads and writes sit in separate queues so a POST held back during a
// pour does not block REQUESTs behind it.
type Inbox struct {
	requests chan Envelope
	posts    chan Envelope
	dropped  atomic.Int64
	log      *logger.Logger
}

// NewInbox creates an inbox with size slots per queue.
func NewInbox(size int, log *logger.Logger) *Inbox {
	if size < 1 {
		size = DefaultInboxSize
	}
	return &Inbox{
		requests: make(chan Envelope, size),
		posts:    make(chan Envelope, size),
		log:      log,
	}
}

// Deliver queues an envelope without blocking. A full queue drops it.
func (in *Inbox) Deliver(env Envelope) bool {
	queue := in.requests
	if env.Command.Verb == VerbPost {
		queue = in.posts
	}
	select {
	case queue <- env:
		return true
	default:
		in.dropped.Add(1)
		in.log.Warn("inbox full, dropping %s", env.Command)
		return false
	}
}

// Next returns at most one pending envelope. REQUESTs come first; POSTs
// are only handed out when allowPost is true.
func (in *Inbox) Next(allowPost bool) (Envelope, bool) {
	select {
	case env := <-in.requests:
		return env, true
	default:
	}
	if !allowPost {
		return Envelope{}, false
	}
	select {
	case env := <-in.posts:
		return env, true
	default:
		return Envelope{}, false
	}
}

// Dropped returns how many envelopes were discarded on a full queue.
func (in *Inbox) Dropped() int64 { return in.dropped.Load() }
