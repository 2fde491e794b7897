// Package asr defines the speech-to-text engine contract and the engines
// that do not need native libraries.
package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrNoProvider is returned when every execution provider failed to load.
	ErrNoProvider = errors.New("no execution provider could load the engine")
	// ErrNotLoaded is returned by a Holder before its engine is set.
	ErrNotLoaded = errors.New("engine not loaded")
)

// TempPrefix names the temporary audio files engines write; leftovers are
// removed at startup.
const TempPrefix = "RecordTemp_"

// Segment is one piece of recognized speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Options are per-request settings.
type Options struct {
	// Language is an ISO code; empty means auto-detect.
	Language string
	// VAD drops non-speech before decoding.
	VAD bool
}

// Engine transcribes 16 kHz mono float samples into ordered segments.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, pcm []float32, opts Options) ([]Segment, error)
	Close() error
}

// JoinSegments joins segment texts with single spaces, skipping blank
// segments, and trims the result.
func JoinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// RetryExhaustedError is returned when every upload attempt failed.
type RetryExhaustedError struct {
	Attempts int
	MaxRetry int
	Last     error
	Body     []byte
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("exceeded max retries (%d after %d attempts): %v", e.MaxRetry, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, pcm []float32, opts Options) ([]Segment, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Transcribe(ctx context.Context, pcm []float32, opts Options) ([]Segment, error) {
	return f(ctx, pcm, opts)
}

func (f EngineFunc) Close() error { return nil }

type engineBox struct{ Engine }

// Holder forwards to an engine that is loaded after the holder is wired.
type Holder struct {
	p atomic.Pointer[engineBox]
}

// Set installs the engine. It returns the previous one, if any.
func (h *Holder) Set(e Engine) Engine {
	old := h.p.Swap(&engineBox{e})
	if old == nil {
		return nil
	}
	return old.Engine
}

// Loaded reports whether an engine is set.
func (h *Holder) Loaded() bool { return h.p.Load() != nil }

func (h *Holder) Name() string {
	if b := h.p.Load(); b != nil {
		return b.Name()
	}
	return "unloaded"
}

func (h *Holder) Transcribe(ctx context.Context, pcm []float32, opts Options) ([]Segment, error) {
	b := h.p.Load()
	if b == nil {
		return nil, ErrNotLoaded
	}
	return b.Transcribe(ctx, pcm, opts)
}

// Close closes the current engine.
func (h *Holder) Close() error {
	b := h.p.Swap(nil)
	if b == nil {
		return nil
	}
	return b.Close()
}
