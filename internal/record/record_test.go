package record

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
	errs   []error
	texts  []string
}

func (e *eventLog) add(ev string) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventLog) Started(*Session)    { e.add("started") }
func (e *eventLog) Discarded(*Session)  { e.add("discarded") }
func (e *eventLog) Processing(*Session) { e.add("processing") }
func (e *eventLog) Finished(_ *Session, t Transcript, err error) {
	e.mu.Lock()
	e.events = append(e.events, "finished")
	e.errs = append(e.errs, err)
	e.texts = append(e.texts, t.Text)
	e.mu.Unlock()
}

func (e *eventLog) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type fakeWorker struct {
	mu    sync.Mutex
	calls int
	audio [][]float32
	block chan struct{}
	fn    func(*Session) (Transcript, error)
}

func (w *fakeWorker) Process(_ context.Context, s *Session) (Transcript, error) {
	w.mu.Lock()
	w.calls++
	pcm, _ := s.Audio()
	w.audio = append(w.audio, pcm)
	w.mu.Unlock()
	if w.block != nil {
		<-w.block
	}
	if w.fn != nil {
		return w.fn(s)
	}
	return Transcript{Text: "ok", Delivered: true}, nil
}

func (w *fakeWorker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func newTestMachine(w Worker, obs Observer) (*Machine, *Buffer) {
	buf := NewBuffer(0)
	m := NewMachine(buf, w, Options{MinSamples: 1600, Observer: obs})
	m.SetReady()
	return m, buf
}

func feed(buf *Buffer, samples, frame int) {
	chunk := make([]float32, frame)
	for samples > 0 {
		n := frame
		if samples < n {
			n = samples
		}
		buf.Write(chunk[:n])
		samples -= n
	}
}

func waitIdle(t *testing.T, m *Machine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("worker did not finish: %v", err)
	}
	if got := m.State(); got != StateIdle {
		t.Fatalf("expected idle, got %v", got)
	}
}

func TestPressReleaseCycles(t *testing.T) {
	obs := &eventLog{}
	w := &fakeWorker{}
	m, buf := newTestMachine(w, obs)

	for i := 0; i < 3; i++ {
		if !m.Start() {
			t.Fatalf("cycle %d: start rejected", i)
		}
		if m.State() != StateRecording {
			t.Fatalf("cycle %d: expected recording, got %v", i, m.State())
		}
		feed(buf, 32000, 512)
		if !m.Stop() {
			t.Fatalf("cycle %d: stop rejected", i)
		}
		waitIdle(t, m)
	}

	want := []string{
		"started", "processing", "finished",
		"started", "processing", "finished",
		"started", "processing", "finished",
	}
	if got := obs.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if w.Calls() != 3 {
		t.Fatalf("expected 3 worker calls, got %d", w.Calls())
	}
}

func TestPressDuringProcessingIsDropped(t *testing.T) {
	obs := &eventLog{}
	w := &fakeWorker{block: make(chan struct{})}
	m, buf := newTestMachine(w, obs)

	m.Start()
	feed(buf, 16000, 1024)
	m.Stop()
	if m.State() != StateProcessing {
		t.Fatalf("expected processing, got %v", m.State())
	}

	if m.Start() {
		t.Fatalf("start accepted while processing")
	}
	if m.Stop() {
		t.Fatalf("stop accepted while processing")
	}
	if m.State() != StateProcessing {
		t.Fatalf("press changed state to %v", m.State())
	}

	close(w.block)
	waitIdle(t, m)

	if w.Calls() != 1 {
		t.Fatalf("expected 1 worker call, got %d", w.Calls())
	}
	want := []string{"started", "processing", "finished"}
	if got := obs.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestShortRecordingDiscarded(t *testing.T) {
	obs := &eventLog{}
	w := &fakeWorker{}
	m, buf := newTestMachine(w, obs)

	m.Start()
	feed(buf, 800, 160) // 50 ms of silence
	m.Stop()

	if m.State() != StateIdle {
		t.Fatalf("expected idle, got %v", m.State())
	}
	waitIdle(t, m)
	if w.Calls() != 0 {
		t.Fatalf("short recording reached the worker")
	}
	want := []string{"started", "discarded"}
	if got := obs.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestThresholdBoundary(t *testing.T) {
	w := &fakeWorker{}
	m, buf := newTestMachine(w, nil)

	m.Start()
	feed(buf, 1599, 1599)
	m.Stop()
	waitIdle(t, m)

	m.Start()
	feed(buf, 1600, 1600)
	m.Stop()
	waitIdle(t, m)

	if w.Calls() != 1 {
		t.Fatalf("expected only the 1600 sample recording to be processed, got %d calls", w.Calls())
	}
}

func TestChunkingIsTransparent(t *testing.T) {
	src := make([]float32, 20000)
	for i := range src {
		src[i] = float32(i%997) / 997
	}

	for _, frame := range []int{1, 7, 160, 512, 1024, 20000} {
		w := &fakeWorker{}
		m, buf := newTestMachine(w, nil)

		m.Start()
		for off := 0; off < len(src); off += frame {
			end := off + frame
			if end > len(src) {
				end = len(src)
			}
			buf.Write(src[off:end])
		}
		m.Stop()
		waitIdle(t, m)

		if len(w.audio) != 1 || !reflect.DeepEqual(w.audio[0], src) {
			t.Fatalf("frame %d: audio differs from source", frame)
		}
	}
}

func TestWriteCopiesFrame(t *testing.T) {
	buf := NewBuffer(0)
	buf.reset()
	frame := []float32{1, 2, 3}
	buf.Write(frame)
	frame[0] = 9

	chunks, samples, _ := buf.detach()
	if samples != 3 || chunks[0][0] != 1 {
		t.Fatalf("buffer aliased the callback frame: %v", chunks)
	}
}

func TestWriteIgnoredWhenNotRecording(t *testing.T) {
	buf := NewBuffer(0)
	buf.Write([]float32{1, 2, 3})
	buf.reset()
	chunks, samples, _ := buf.detach()
	if len(chunks) != 0 || samples != 0 {
		t.Fatalf("frames kept while not recording: %d samples", samples)
	}
	buf.Write([]float32{1})
	if _, samples, _ := buf.detach(); samples != 0 {
		t.Fatalf("frames kept after detach")
	}
}

func TestBufferCap(t *testing.T) {
	buf := NewBuffer(1000)
	buf.reset()
	feed(buf, 1500, 400)
	_, samples, dropped := buf.detach()
	if samples != 800 || dropped != 700 {
		t.Fatalf("samples=%d dropped=%d, want 800 and 700", samples, dropped)
	}
}

func TestWorkerErrorReturnsToIdle(t *testing.T) {
	obs := &eventLog{}
	boom := errors.New("inference failed")
	w := &fakeWorker{fn: func(*Session) (Transcript, error) { return Transcript{}, boom }}
	m, buf := newTestMachine(w, obs)

	m.Start()
	feed(buf, 32000, 1024)
	m.Stop()
	waitIdle(t, m)

	if len(obs.errs) != 1 || !errors.Is(obs.errs[0], boom) {
		t.Fatalf("expected worker error to be reported, got %v", obs.errs)
	}
	if !m.Start() {
		t.Fatalf("machine unusable after worker error")
	}
}

func TestWorkerPanicReturnsToIdle(t *testing.T) {
	obs := &eventLog{}
	w := &fakeWorker{fn: func(*Session) (Transcript, error) { panic("engine crashed") }}
	m, buf := newTestMachine(w, obs)

	m.Start()
	feed(buf, 32000, 1024)
	m.Stop()
	waitIdle(t, m)

	if len(obs.errs) != 1 || obs.errs[0] == nil {
		t.Fatalf("expected panic to surface as an error, got %v", obs.errs)
	}
}

func TestDoublePressStartsOnce(t *testing.T) {
	obs := &eventLog{}
	m, _ := newTestMachine(&fakeWorker{}, obs)

	if !m.Start() {
		t.Fatalf("first press rejected")
	}
	if m.Start() {
		t.Fatalf("second press accepted")
	}
	want := []string{"started"}
	if got := obs.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestNotReadyRejectsStart(t *testing.T) {
	buf := NewBuffer(0)
	m := NewMachine(buf, &fakeWorker{}, Options{MinSamples: 1600})
	if m.Start() {
		t.Fatalf("start accepted before engine was ready")
	}
	buf.Write([]float32{1})
	if buf.Recording() {
		t.Fatalf("buffer recording while machine idle")
	}
}

func TestShutdownDiscardsRecording(t *testing.T) {
	obs := &eventLog{}
	w := &fakeWorker{}
	m, buf := newTestMachine(w, obs)

	m.Start()
	feed(buf, 32000, 1024)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if m.State() != StateIdle || w.Calls() != 0 {
		t.Fatalf("recording not discarded on shutdown")
	}
	m.SetReady()
	if m.Start() {
		t.Fatalf("start accepted after shutdown")
	}
}

func TestShutdownWaitsForWorker(t *testing.T) {
	w := &fakeWorker{block: make(chan struct{})}
	m, buf := newTestMachine(w, nil)

	m.Start()
	feed(buf, 32000, 1024)
	m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while worker runs, got %v", err)
	}
	close(w.block)
	waitIdle(t, m)
}

func TestConcurrentWritesDuringTransitions(t *testing.T) {
	w := &fakeWorker{}
	m, buf := newTestMachine(w, nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		frame := make([]float32, 160)
		for {
			select {
			case <-stop:
				return
			default:
				buf.Write(frame)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		m.Start()
		time.Sleep(time.Millisecond)
		m.Stop()
		waitIdle(t, m)
	}
	close(stop)
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	for i, pcm := range w.audio {
		if pcm == nil {
			t.Fatalf("session %d had a malformed chunk list", i)
		}
	}
}

func TestSessionAudioMalformed(t *testing.T) {
	s := &Session{Chunks: [][]float32{{1, 2}}, Samples: 3}
	if _, err := s.Audio(); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession, got %v", err)
	}
	s = &Session{}
	if _, err := s.Audio(); !errors.Is(err, ErrMalformedSession) {
		t.Fatalf("expected ErrMalformedSession for empty session, got %v", err)
	}
}

func TestSessionDuration(t *testing.T) {
	s := &Session{Samples: 32000}
	if s.Duration() != 2*time.Second {
		t.Fatalf("expected 2s, got %v", s.Duration())
	}
}
