// Package sherpa runs whisper models locally through sherpa-onnx, with an
// optional silero VAD in front of the recognizer.
package sherpa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// Config locates the model files.
type Config struct {
	ModelsDir string
	Model     string
	// Language is fixed when the recognizer is created; empty auto-detects.
	Language string
	VADModel string
	Threads  int
	Provider string
}

// ModelFiles returns the encoder, decoder and tokens paths for a whisper
// model under dir, as laid out by the sherpa-onnx release archives.
func ModelFiles(dir, model string) (encoder, decoder, tokens string) {
	base := filepath.Join(dir, "sherpa-onnx-whisper-"+model)
	return filepath.Join(base, model+"-encoder.int8.onnx"),
		filepath.Join(base, model+"-decoder.int8.onnx"),
		filepath.Join(base, model+"-tokens.txt")
}

// Engine is a loaded recognizer. Decoding is serialized.
type Engine struct {
	mu         sync.Mutex
	recognizer *sherpa.OfflineRecognizer
	vadConfig  *sherpa.VadModelConfig
	cfg        Config
	log        *log.Logger
}

// New loads the recognizer for cfg.Provider.
func New(cfg Config, lg *log.Logger) (*Engine, error) {
	enc, dec, tokens := ModelFiles(cfg.ModelsDir, cfg.Model)
	for _, p := range []string{enc, dec, tokens} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file missing: %w", err)
		}
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 2
	}

	rc := sherpa.OfflineRecognizerConfig{}
	rc.FeatConfig = sherpa.FeatureConfig{SampleRate: config.SampleRate, FeatureDim: 80}
	rc.ModelConfig.Whisper = sherpa.OfflineWhisperModelConfig{
		Encoder:      enc,
		Decoder:      dec,
		Language:     whisperLanguage(cfg.Model, cfg.Language),
		Task:         "transcribe",
		TailPaddings: -1,
	}
	rc.ModelConfig.Tokens = tokens
	rc.ModelConfig.NumThreads = cfg.Threads
	rc.ModelConfig.Provider = cfg.Provider
	rc.DecodingMethod = "greedy_search"

	recognizer := sherpa.NewOfflineRecognizer(&rc)
	if recognizer == nil {
		return nil, fmt.Errorf("create recognizer for %s on %s failed", cfg.Model, cfg.Provider)
	}

	e := &Engine{recognizer: recognizer, cfg: cfg, log: lg.Component("sherpa")}
	if cfg.VADModel != "" {
		if _, err := os.Stat(cfg.VADModel); err != nil {
			e.log.Warn("VAD model missing, decoding whole recordings", "err", err)
		} else {
			vc := &sherpa.VadModelConfig{}
			vc.SileroVad = sherpa.SileroVadModelConfig{
				Model:              cfg.VADModel,
				Threshold:          0.5,
				MinSilenceDuration: 0.5,
				MinSpeechDuration:  0.25,
				WindowSize:         512,
				MaxSpeechDuration:  30,
			}
			vc.SampleRate = config.SampleRate
			vc.NumThreads = 1
			vc.Provider = "cpu"
			e.vadConfig = vc
		}
	}
	return e, nil
}

// English-only checkpoints reject a language setting.
func whisperLanguage(model, lang string) string {
	if strings.HasSuffix(model, ".en") {
		return ""
	}
	return lang
}

func (e *Engine) Name() string {
	return fmt.Sprintf("whisper-%s (%s)", e.cfg.Model, e.cfg.Provider)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(e.recognizer)
		e.recognizer = nil
	}
	return nil
}

// Transcribe decodes pcm. With VAD requested and a VAD model configured,
// each detected speech span is decoded as its own segment.
func (e *Engine) Transcribe(ctx context.Context, pcm []float32, opts asr.Options) ([]asr.Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recognizer == nil {
		return nil, errors.New("engine closed")
	}
	if lang := whisperLanguage(e.cfg.Model, opts.Language); lang != whisperLanguage(e.cfg.Model, e.cfg.Language) {
		e.log.Debug("language is fixed at load time", "requested", opts.Language, "loaded", e.cfg.Language)
	}

	if !opts.VAD || e.vadConfig == nil {
		text := e.decode(pcm)
		return []asr.Segment{{End: samplesToDuration(len(pcm)), Text: text}}, nil
	}

	vad := sherpa.NewVoiceActivityDetector(e.vadConfig, 20)
	if vad == nil {
		return nil, errors.New("create VAD failed")
	}
	defer sherpa.DeleteVoiceActivityDetector(vad)

	var segs []asr.Segment
	drain := func() error {
		for !vad.IsEmpty() {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := vad.Front()
			vad.Pop()
			segs = append(segs, asr.Segment{
				Start: samplesToDuration(s.Start),
				End:   samplesToDuration(s.Start + len(s.Samples)),
				Text:  e.decode(s.Samples),
			})
		}
		return nil
	}

	window := e.vadConfig.SileroVad.WindowSize
	for off := 0; off < len(pcm); off += window {
		end := off + window
		if end > len(pcm) {
			end = len(pcm)
		}
		vad.AcceptWaveform(pcm[off:end])
		if err := drain(); err != nil {
			return nil, err
		}
	}
	vad.Flush()
	if err := drain(); err != nil {
		return nil, err
	}
	e.log.Debug("vad finished", "segments", len(segs), "samples", len(pcm))
	return segs, nil
}

func (e *Engine) decode(samples []float32) string {
	start := time.Now()
	stream := sherpa.NewOfflineStream(e.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(config.SampleRate, samples)
	e.recognizer.Decode(stream)
	text := stream.GetResult().Text
	e.log.Debug("decoded", "samples", len(samples), "elapsed", time.Since(start))
	return text
}

func samplesToDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / config.SampleRate
}

// Factory returns an asr.Factory that loads cfg on the requested provider.
func Factory(cfg Config, lg *log.Logger) asr.Factory {
	return func(_ context.Context, provider string) (asr.Engine, error) {
		c := cfg
		c.Provider = provider
		e, err := New(c, lg)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
