package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// State represents the dictation lifecycle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrMalformedSession is returned when a session's chunk list does not add
// up to its sample count.
var ErrMalformedSession = errors.New("malformed session")

// Session is one recording.
type Session struct {
	ID      uuid.UUID
	Chunks  [][]float32
	Samples int
	Dropped int
	Started time.Time
	Stopped time.Time
}

// Duration is the captured audio length.
func (s *Session) Duration() time.Duration {
	return time.Duration(s.Samples) * time.Second / config.SampleRate
}

// Audio concatenates the chunks into one mono buffer.
func (s *Session) Audio() ([]float32, error) {
	if len(s.Chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", ErrMalformedSession)
	}
	n := 0
	for _, c := range s.Chunks {
		n += len(c)
	}
	if n != s.Samples {
		return nil, fmt.Errorf("%w: chunks hold %d samples, expected %d", ErrMalformedSession, n, s.Samples)
	}
	out := make([]float32, 0, n)
	for _, c := range s.Chunks {
		out = append(out, c...)
	}
	return out, nil
}

// Transcript is the result of one processing cycle.
type Transcript struct {
	Text      string
	Delivered bool
}

// Worker turns a finished session into text and delivers it.
type Worker interface {
	Process(ctx context.Context, s *Session) (Transcript, error)
}

// WorkerFunc adapts a function to Worker.
type WorkerFunc func(ctx context.Context, s *Session) (Transcript, error)

func (f WorkerFunc) Process(ctx context.Context, s *Session) (Transcript, error) {
	return f(ctx, s)
}

// Observer is told about every transition. Calls are made with the machine
// lock held, in transition order, so implementations may only enqueue.
type Observer interface {
	Started(s *Session)
	Discarded(s *Session)
	Processing(s *Session)
	Finished(s *Session, t Transcript, err error)
}

// Observers fans a notification out to several observers.
type Observers []Observer

func (o Observers) Started(s *Session) {
	for _, x := range o {
		x.Started(s)
	}
}

func (o Observers) Discarded(s *Session) {
	for _, x := range o {
		x.Discarded(s)
	}
}

func (o Observers) Processing(s *Session) {
	for _, x := range o {
		x.Processing(s)
	}
}

func (o Observers) Finished(s *Session, t Transcript, err error) {
	for _, x := range o {
		x.Finished(s, t, err)
	}
}

// Options configures a Machine.
type Options struct {
	// MinSamples is the shortest recording handed to the worker.
	MinSamples int
	Observer   Observer
	Logger     *log.Logger
}

// Machine owns the session lifecycle: idle -> recording -> processing -> idle.
type Machine struct {
	mu         sync.Mutex
	state      State
	ready      bool
	closed     bool
	buf        *Buffer
	session    *Session
	done       chan struct{}
	worker     Worker
	observer   Observer
	minSamples int
	log        *log.Logger
}

// NewMachine creates an idle machine. It rejects recordings until SetReady.
func NewMachine(buf *Buffer, w Worker, opts Options) *Machine {
	obs := opts.Observer
	if obs == nil {
		obs = Observers(nil)
	}
	return &Machine{
		buf:        buf,
		worker:     w,
		observer:   obs,
		minSamples: opts.MinSamples,
		log:        opts.Logger.Component("record"),
	}
}

// SetReady allows recordings once the engine has loaded.
func (m *Machine) SetReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.ready = true
	}
}

// Ready reports whether recordings are accepted.
func (m *Machine) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins a recording. It returns false, and does nothing, unless the
// machine is ready and idle. A press while processing is dropped.
func (m *Machine) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		m.log.Debug("start ignored: engine not ready")
		return false
	}
	if m.state != StateIdle {
		m.log.Debug("start ignored", "state", m.state)
		return false
	}

	m.buf.reset()
	m.session = &Session{ID: uuid.New(), Started: time.Now()}
	m.state = StateRecording
	m.log.Debug("recording", "session", m.session.ID)
	m.observer.Started(m.session)
	return true
}

// Stop ends the recording. Short recordings are discarded and the machine
// returns to idle; otherwise the session goes to the worker on its own
// goroutine. It returns false when there was no recording to stop.
func (m *Machine) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRecording {
		return false
	}

	s := m.detachLocked()
	if s.Samples < m.minSamples || s.Samples == 0 {
		m.log.Debug("discarding short recording", "session", s.ID, "samples", s.Samples)
		m.state = StateIdle
		m.observer.Discarded(s)
		return true
	}

	m.state = StateProcessing
	m.done = make(chan struct{})
	m.log.Debug("processing", "session", s.ID, "samples", s.Samples, "dropped", s.Dropped)
	m.observer.Processing(s)
	go m.process(s, m.done)
	return true
}

func (m *Machine) detachLocked() *Session {
	chunks, samples, dropped := m.buf.detach()
	s := m.session
	m.session = nil
	s.Chunks = chunks
	s.Samples = samples
	s.Dropped = dropped
	s.Stopped = time.Now()
	return s
}

func (m *Machine) process(s *Session, done chan struct{}) {
	defer close(done)

	t, err := m.runWorker(s)
	if err != nil {
		m.log.Error("transcription failed", "session", s.ID, "err", err)
	}

	m.mu.Lock()
	m.state = StateIdle
	m.done = nil
	m.observer.Finished(s, t, err)
	m.mu.Unlock()
}

func (m *Machine) runWorker(s *Session) (t Transcript, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	// Transcription is never canceled once started.
	return m.worker.Process(context.Background(), s)
}

// Wait blocks until no session is processing or ctx is done.
func (m *Machine) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting recordings, discards one in progress and waits
// for a processing session to finish.
func (m *Machine) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.ready = false
	m.closed = true
	if m.state == StateRecording {
		s := m.detachLocked()
		m.state = StateIdle
		m.observer.Discarded(s)
	}
	m.mu.Unlock()
	return m.Wait(ctx)
}
