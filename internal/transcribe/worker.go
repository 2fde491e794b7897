// Package transcribe turns a finished recording into pasted text.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/audio"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
	"github.com/coleski/win-voice/internal/record"
)

// Paster delivers text to the focused application.
type Paster interface {
	Paste(text string) error
}

// Worker runs one transcription per session. It is invoked by the state
// machine on a dedicated goroutine.
type Worker struct {
	Engine asr.Engine
	Paster Paster
	// Language is passed to the engine; empty means auto-detect.
	Language string
	// CacheDir, when set, receives a WAV and a transcript per session.
	CacheDir string
	Logger   *log.Logger
	// Observe, when set, receives the inference duration.
	Observe func(d time.Duration)
}

// Process implements record.Worker.
func (w *Worker) Process(ctx context.Context, s *record.Session) (record.Transcript, error) {
	lg := w.Logger.Component("transcribe").With("session", s.ID)

	pcm, err := s.Audio()
	if err != nil {
		return record.Transcript{}, fmt.Errorf("capture: %w", err)
	}
	lg.Debug("transcribing", "duration", s.Duration(), "peak", audio.Peak(pcm), "dropped", s.Dropped)

	if w.CacheDir != "" {
		path := filepath.Join(w.CacheDir, cacheName(s)+".wav")
		if err := audio.WriteWAVFile(path, pcm, config.SampleRate); err != nil {
			lg.Warn("cache write failed", "err", err)
		}
	}

	start := time.Now()
	segs, err := w.Engine.Transcribe(ctx, pcm, asr.Options{Language: w.Language, VAD: true})
	elapsed := time.Since(start)
	if w.Observe != nil {
		w.Observe(elapsed)
	}
	if err != nil {
		return record.Transcript{}, fmt.Errorf("inference: %w", err)
	}

	text := asr.JoinSegments(segs)
	lg.Info("transcribed", "segments", len(segs), "chars", len(text), "elapsed", elapsed)
	if w.CacheDir != "" && text != "" {
		path := filepath.Join(w.CacheDir, cacheName(s)+".txt")
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			lg.Warn("cache write failed", "err", err)
		}
	}

	if text == "" {
		return record.Transcript{}, nil
	}
	if err := w.Paster.Paste(text); err != nil {
		return record.Transcript{Text: text}, fmt.Errorf("paste: %w", err)
	}
	return record.Transcript{Text: text, Delivered: true}, nil
}

func cacheName(s *record.Session) string {
	return s.Started.Format("20060102_150405") + "_" + s.ID.String()[:8]
}
