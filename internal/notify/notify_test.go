package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu  sync.Mutex
	got []string
	ch  chan struct{}
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func newTestNotifier(r *recorder, cues, notifications bool) *Notifier {
	n := New("win-voice", cues, notifications, nil)
	n.beep = func(freq float64, ms int) error {
		r.add(fmt.Sprintf("beep %.0f/%d", freq, ms))
		return nil
	}
	n.notify = func(title, msg string, _ any) error {
		r.add(title + ": " + msg)
		return nil
	}
	return n
}

func TestNotifierRunsInOrder(t *testing.T) {
	r := &recorder{ch: make(chan struct{}, 8)}
	n := newTestNotifier(r, true, true)

	n.Play(StartCue)
	n.Notify("Model loaded")
	n.Play(StopCue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-r.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d requests", i)
		}
	}
	want := []string{"beep 880/60", "win-voice: Model loaded", "beep 660/60"}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range want {
		if r.got[i] != want[i] {
			t.Fatalf("got %v, want %v", r.got, want)
		}
	}
}

func TestNotifierDisabledOutputs(t *testing.T) {
	r := &recorder{ch: make(chan struct{}, 8)}
	n := newTestNotifier(r, false, false)
	n.Play(ErrorCue)
	n.Notify("ignored")
	if len(n.queue) != 0 {
		t.Fatalf("disabled outputs were queued")
	}

	var nilNotifier *Notifier
	nilNotifier.Play(StartCue)
	nilNotifier.Notify("nil is fine")
}

func TestNotifierNeverBlocks(t *testing.T) {
	r := &recorder{ch: make(chan struct{}, 64)}
	n := newTestNotifier(r, true, false)
	for i := 0; i < cap(n.queue)+5; i++ {
		n.Play(StartCue)
	}
	if n.Dropped() != 5 {
		t.Fatalf("dropped = %d, want 5", n.Dropped())
	}
}
