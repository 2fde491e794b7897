package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/coleski/win-voice/internal/log"
)

// ErrNotFound is returned when no ffmpeg binary is on PATH.
var ErrNotFound = errors.New("ffmpeg not found")

// Options describes the output encoding.
type Options struct {
	Codec      string
	SampleRate int
	Channels   int
	// Bitrate in kbps for lossy codecs.
	Bitrate int
}

// Available reports whether ffmpeg can be run.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Convert re-encodes inPath into outPath; the container follows outPath's
// extension.
func Convert(ctx context.Context, opts Options, inPath, outPath string, lg *log.Logger) error {
	if !Available() {
		return ErrNotFound
	}
	channels := opts.Channels
	if channels <= 0 {
		channels = 1
	}
	bitrate := opts.Bitrate
	if bitrate <= 0 {
		bitrate = 128
	}

	ffCodec, codecHasBitrate := codecFor(opts.Codec)
	if ffCodec == "" {
		return fmt.Errorf("unsupported codec: %s", opts.Codec)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inPath, "-ac", strconv.Itoa(channels)}
	if opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
	}
	args = append(args, "-c:a", ffCodec)
	if codecHasBitrate {
		args = append(args, "-b:a", fmt.Sprintf("%dk", bitrate))
	}
	args = append(args, outPath)

	lg.Debug("running ffmpeg", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ToWAV converts any audio file ffmpeg understands into 16-bit mono WAV at rate.
func ToWAV(ctx context.Context, inPath, outPath string, rate int, lg *log.Logger) error {
	return Convert(ctx, Options{Codec: "pcm", SampleRate: rate, Channels: 1}, inPath, outPath, lg)
}

// Extension returns the file extension for a container name.
func Extension(container string) string {
	c := strings.ToLower(strings.TrimSpace(container))
	switch c {
	case "", "wav", "wave":
		return ".wav"
	case "matroska", "mkv":
		return ".mka"
	case "mpeg", "mp3":
		return ".mp3"
	}
	return "." + c
}

func codecFor(key string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "opus", "libopus":
		return "libopus", true
	case "aac":
		return "aac", true
	case "mp3":
		return "libmp3lame", true
	case "flac":
		return "flac", false
	case "alac":
		return "alac", false
	case "pcm", "":
		return "pcm_s16le", false
	case "vorbis", "libvorbis":
		return "libvorbis", true
	case "wavpack":
		return "wavpack", false
	case "pcm_f32le", "pcm_s16le", "pcm_s24le", "pcm_s32le":
		return k, false
	}
	return "", false
}

// NeedsConversion reports whether codec/container differ from plain PCM WAV.
func NeedsConversion(codec, container string) bool {
	c, _ := codecFor(codec)
	return c != "pcm_s16le" || Extension(container) != ".wav"
}
