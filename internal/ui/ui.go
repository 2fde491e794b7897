// Package ui drives the status presentation from a single goroutine.
//
// Producers (the state machine observer, the engine loader) post commands to
// a Queue without blocking; Run drains it and calls the Presenter. Delayed
// hides are timers that post back into the same queue, so they are ordered
// with every other command and can be invalidated by later ones.
package ui

import (
	"context"
	"sync/atomic"
	"time"
)

// State is what the presentation shows.
type State int

const (
	StateLoading State = iota
	StateReady
	StateRecording
	StateProcessing
	// StateFailed means the engine could not be loaded; recording stays off.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Label is the default text for a state.
func (s State) Label() string {
	switch s {
	case StateLoading:
		return "Loading model..."
	case StateReady:
		return "Ready"
	case StateRecording:
		return "Recording"
	case StateProcessing:
		return "Transcribing"
	case StateFailed:
		return "Model failed to load"
	}
	return ""
}

// Presenter renders commands. Its methods are only called from Run.
type Presenter interface {
	SetState(s State, text string)
	Show()
	Hide()
}

type cmdKind int

const (
	cmdSetState cmdKind = iota
	cmdShow
	cmdHide
	cmdHideAfter
	cmdDelayedHide
)

type command struct {
	kind  cmdKind
	state State
	text  string
	delay time.Duration
	gen   uint64
}

// DefaultQueueSize is the capacity used by NewQueue when size <= 0.
const DefaultQueueSize = 64

// Queue is a bounded, non-blocking command queue.
type Queue struct {
	ch      chan command
	dropped atomic.Int64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan command, size)}
}

func (q *Queue) post(c command) {
	select {
	case q.ch <- c:
	default:
		q.dropped.Add(1)
	}
}

// Dropped is the number of commands discarded because the queue was full.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// SetState shows s with text, or the state's label when text is empty.
func (q *Queue) SetState(s State, text string) {
	q.post(command{kind: cmdSetState, state: s, text: text})
}

func (q *Queue) Show() { q.post(command{kind: cmdShow}) }

func (q *Queue) Hide() { q.post(command{kind: cmdHide}) }

// HideAfter hides the presentation after d unless a state change or show is
// processed in the meantime.
func (q *Queue) HideAfter(d time.Duration) {
	q.post(command{kind: cmdHideAfter, delay: d})
}

// Run drains q into p until ctx is done. It must be the only caller of p.
func Run(ctx context.Context, q *Queue, p Presenter) error {
	// gen counts state changes and shows; a delayed hide only applies if
	// none happened since it was scheduled.
	var gen uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-q.ch:
			switch c.kind {
			case cmdSetState:
				gen++
				text := c.text
				if text == "" {
					text = c.state.Label()
				}
				p.SetState(c.state, text)
			case cmdShow:
				gen++
				p.Show()
			case cmdHide:
				p.Hide()
			case cmdHideAfter:
				scheduled := gen
				time.AfterFunc(c.delay, func() {
					q.post(command{kind: cmdDelayedHide, gen: scheduled})
				})
			case cmdDelayedHide:
				if c.gen == gen {
					p.Hide()
				}
			}
		}
	}
}
