// Package notify plays audible cues and shows desktop notifications off the
// caller's goroutine.
package notify

import (
	"context"
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"github.com/coleski/win-voice/internal/log"
)

// Cue is a short tone.
type Cue struct {
	Freq       float64
	DurationMs int
}

var (
	StartCue = Cue{Freq: 880, DurationMs: 60}
	StopCue  = Cue{Freq: 660, DurationMs: 60}
	ErrorCue = Cue{Freq: 330, DurationMs: 150}
)

// Notifier queues cues and notifications for a single goroutine running
// Run, since beeps block for their duration on some platforms.
type Notifier struct {
	Title string
	// Cues and Notifications switch the two outputs.
	Cues          bool
	Notifications bool

	queue   chan func()
	dropped atomic.Int64
	log     *log.Logger

	beep   func(freq float64, durationMs int) error
	notify func(title, message string, icon any) error
}

// New creates a notifier backed by beeep.
func New(title string, cues, notifications bool, lg *log.Logger) *Notifier {
	return &Notifier{
		Title:         title,
		Cues:          cues,
		Notifications: notifications,
		queue:         make(chan func(), 16),
		log:           lg.Component("notify"),
		beep:          beeep.Beep,
		notify:        beeep.Notify,
	}
}

func (n *Notifier) post(fn func()) {
	select {
	case n.queue <- fn:
	default:
		n.dropped.Add(1)
	}
}

// Dropped is the number of requests discarded because the queue was full.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Play queues a cue. It never blocks.
func (n *Notifier) Play(c Cue) {
	if n == nil || !n.Cues {
		return
	}
	n.post(func() {
		if err := n.beep(c.Freq, c.DurationMs); err != nil {
			n.log.Debug("beep failed", "err", err)
		}
	})
}

// Notify queues a desktop notification. It never blocks.
func (n *Notifier) Notify(message string) {
	if n == nil || !n.Notifications {
		return
	}
	n.post(func() {
		if err := n.notify(n.Title, message, ""); err != nil {
			n.log.Debug("notification failed", "err", err)
		}
	})
}

// Run plays queued requests until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-n.queue:
			fn()
		}
	}
}
