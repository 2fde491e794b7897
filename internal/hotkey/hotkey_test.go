package hotkey

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerRepeatYieldsOneEdge(t *testing.T) {
	d := NewDebouncer([][]int{{56, 3640}})
	var edges []Edge
	for _, ev := range []struct {
		code int
		down bool
	}{
		{56, true}, {56, true}, {56, true}, {30, true}, {56, true}, {30, false}, {56, false}, {56, false},
	} {
		if e := d.Set(ev.code, ev.down); e != EdgeNone {
			edges = append(edges, e)
		}
	}
	want := []Edge{EdgePress, EdgeRelease}
	if !reflect.DeepEqual(edges, want) {
		t.Fatalf("edges = %v, want %v", edges, want)
	}
}

func TestDebouncerEitherSide(t *testing.T) {
	d := NewDebouncer([][]int{{56, 3640}})
	if d.Set(56, true) != EdgePress {
		t.Fatalf("left alt did not press")
	}
	if d.Set(3640, true) != EdgeNone {
		t.Fatalf("second alt pressed again")
	}
	if d.Set(56, false) != EdgeNone {
		t.Fatalf("released while right alt still held")
	}
	if d.Set(3640, false) != EdgeRelease {
		t.Fatalf("expected release after both alts up")
	}
}

func TestDebouncerCombo(t *testing.T) {
	d := NewDebouncer([][]int{{29, 3613}, {42, 54}, {57}})
	if d.Set(57, true) != EdgeNone {
		t.Fatalf("base key alone pressed the combo")
	}
	if d.Set(29, true) != EdgeNone {
		t.Fatalf("combo pressed without shift")
	}
	if d.Set(54, true) != EdgePress {
		t.Fatalf("combo not pressed with all keys held")
	}
	if d.Set(57, true) != EdgeNone {
		t.Fatalf("auto-repeat pressed again")
	}
	if d.Set(29, false) != EdgeRelease {
		t.Fatalf("releasing a modifier did not release the combo")
	}
}

type countingHandler struct {
	presses  atomic.Int32
	releases atomic.Int32
	events   chan string
}

func newCountingHandler() *countingHandler {
	return &countingHandler{events: make(chan string, 16)}
}

func (h *countingHandler) Press() {
	h.presses.Add(1)
	h.events <- "press"
}

func (h *countingHandler) Release() {
	h.releases.Add(1)
	h.events <- "release"
}

func expectEvent(t *testing.T, h *countingHandler, want string) {
	t.Helper()
	select {
	case got := <-h.events:
		if got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func TestPollMonitor(t *testing.T) {
	k, err := Parse("alt")
	if err != nil {
		t.Fatal(err)
	}
	var down atomic.Bool
	p := &PollMonitor{
		Key:      k,
		Interval: time.Millisecond,
		State:    func(vk int) bool { return vk == 0x12 && down.Load() },
	}
	h := newCountingHandler()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx, h); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	down.Store(true)
	expectEvent(t, h, "press")
	time.Sleep(20 * time.Millisecond) // key held across many polls
	down.Store(false)
	expectEvent(t, h, "release")

	cancel()
	wg.Wait()
	if h.presses.Load() != 1 || h.releases.Load() != 1 {
		t.Fatalf("presses=%d releases=%d", h.presses.Load(), h.releases.Load())
	}
}

func TestPollMonitorReleasesOnCancel(t *testing.T) {
	k, _ := Parse("f8")
	p := &PollMonitor{Key: k, Interval: time.Millisecond, State: func(int) bool { return true }}
	h := newCountingHandler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx, h)
		close(done)
	}()
	expectEvent(t, h, "press")
	cancel()
	<-done
	expectEvent(t, h, "release")
}

func TestNewModes(t *testing.T) {
	single, _ := Parse("alt")
	combo, _ := Parse("ctrl+shift+space")

	m, err := New(single, Options{Mode: "auto"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(*HookMonitor); !ok {
		t.Fatalf("auto single key: got %T", m)
	}
	m, err = New(combo, Options{Mode: ""})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(*ComboMonitor); !ok {
		t.Fatalf("auto combo: got %T", m)
	}
	if _, err := New(single, Options{Mode: "combo"}); err == nil {
		t.Fatalf("combo mode accepted a single key")
	}
	if _, err := New(single, Options{Mode: "telepathy"}); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestHandlerFuncs(t *testing.T) {
	var n int
	h := HandlerFuncs{OnPress: func() { n++ }}
	h.Press()
	h.Release()
	if n != 1 {
		t.Fatalf("expected one press, got %d", n)
	}
}
