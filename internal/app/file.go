package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/audio"
	"github.com/coleski/win-voice/internal/audio/ffmpeg"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// RunFileMode transcribes an existing audio file into a .txt file and
// returns the path written. Nothing is pasted.
func RunFileMode(ctx context.Context, cfg config.Config, input, output string, lg *log.Logger) (string, error) {
	flg := lg.Component("file")
	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("file %q: %w", input, err)
	}
	tempDir := config.TempDir(&cfg)
	CleanupTempFiles(tempDir, flg)

	pcm, err := loadAudio(ctx, input, tempDir, lg)
	if err != nil {
		return "", err
	}
	flg.Info("audio loaded", "file", input, "duration", time.Duration(len(pcm))*time.Second/config.SampleRate)

	factory, providers, err := EngineFactory(cfg, lg)
	if err != nil {
		return "", err
	}
	res := (&asr.Loader{Factory: factory, Providers: providers, Logger: lg}).Load(ctx)
	if res.Err != nil {
		return "", res.Err
	}
	defer res.Engine.Close()

	segs, err := res.Engine.Transcribe(ctx, pcm, asr.Options{Language: cfg.LanguageHint(), VAD: true})
	if err != nil {
		return "", fmt.Errorf("inference: %w", err)
	}
	text := asr.JoinSegments(segs)

	out := outputPath(input, output)
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return "", err
	}
	if dir := cacheDir(cfg); dir != "" {
		base := "file-" + time.Now().Format("2006-01-02-15.04.05")
		if err := audio.WriteWAVFile(filepath.Join(dir, base+".wav"), pcm, config.SampleRate); err != nil {
			flg.Warn("cache write failed", "err", err)
		}
	}
	flg.Info("transcript written", "path", out, "segments", len(segs), "chars", len(text))
	return out, nil
}

// loadAudio returns 16 kHz mono samples for path. WAV files are decoded
// directly; anything else, or a WAV go-audio cannot read, goes through ffmpeg.
func loadAudio(ctx context.Context, path, tempDir string, lg *log.Logger) ([]float32, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		pcm, rate, err := audio.ReadWAVFile(path)
		if err == nil {
			return audio.Resample(pcm, rate, config.SampleRate), nil
		}
		if !errors.Is(err, audio.ErrInvalidWAV) {
			return nil, err
		}
		lg.Debug("wav not readable directly, converting", "err", err)
	}

	tmp := filepath.Join(tempDir, asr.TempPrefix+uuid.NewString()+".wav")
	defer os.Remove(tmp)
	if err := ffmpeg.ToWAV(ctx, path, tmp, config.SampleRate, lg); err != nil {
		return nil, fmt.Errorf("convert %q: %w", path, err)
	}
	pcm, rate, err := audio.ReadWAVFile(tmp)
	if err != nil {
		return nil, err
	}
	return audio.Resample(pcm, rate, config.SampleRate), nil
}
