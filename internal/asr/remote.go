package asr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/coleski/win-voice/internal/audio"
	"github.com/coleski/win-voice/internal/audio/ffmpeg"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/jsonpath"
	"github.com/coleski/win-voice/internal/log"
)

// RemoteConfig configures the HTTP upload engine.
type RemoteConfig struct {
	Endpoint string
	Token    string
	Model    string
	// TextPath locates the transcript in the JSON response.
	TextPath string
	// SegmentsPath locates an optional array of timed segments.
	SegmentsPath string
	Codec        string
	Container    string
	Timeout      time.Duration
	MaxRetry     int
	RetryDelay   time.Duration
	EnableHTTP2  bool
	VerifySSL    bool
	TempDir      string
}

// RemoteConfigFrom maps the settings file onto a RemoteConfig.
func RemoteConfigFrom(cfg config.Config) RemoteConfig {
	return RemoteConfig{
		Endpoint:     cfg.APIEndpoint,
		Token:        cfg.APIToken,
		Model:        cfg.APIModel,
		TextPath:     cfg.TextPath,
		SegmentsPath: "segments",
		Codec:        cfg.Codec,
		Container:    cfg.Container,
		Timeout:      time.Duration(cfg.RequestTimeout) * time.Second,
		MaxRetry:     cfg.MaxRetry,
		RetryDelay:   time.Duration(cfg.RetryBaseDelay * float64(time.Second)),
		EnableHTTP2:  cfg.EnableHTTP2,
		VerifySSL:    cfg.VerifySSL,
		TempDir:      config.TempDir(&cfg),
	}
}

// NewHTTPClient builds the upload client.
func NewHTTPClient(timeout time.Duration, enableHTTP2, verifySSL bool) (*http.Client, error) {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !verifySSL},
	}
	if enableHTTP2 {
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, fmt.Errorf("configure http2: %w", err)
		}
	}
	return &http.Client{Timeout: timeout, Transport: tr}, nil
}

// Remote uploads each recording to an HTTP transcription endpoint.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
	log    *log.Logger
}

// NewRemote creates the engine. A nil client gets one built from cfg.
func NewRemote(cfg RemoteConfig, client *http.Client, lg *log.Logger) (*Remote, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("API endpoint is empty")
	}
	if cfg.MaxRetry < 1 {
		cfg.MaxRetry = 1
	}
	if client == nil {
		var err error
		client, err = NewHTTPClient(cfg.Timeout, cfg.EnableHTTP2, cfg.VerifySSL)
		if err != nil {
			return nil, err
		}
	}
	return &Remote{cfg: cfg, client: client, log: lg.Component("remote")}, nil
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Transcribe writes pcm to a temporary file in the upload format and posts it.
func (r *Remote) Transcribe(ctx context.Context, pcm []float32, opts Options) ([]Segment, error) {
	path, cleanup, err := r.prepare(ctx, pcm)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	body, err := r.upload(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	dur := time.Duration(len(pcm)) * time.Second / config.SampleRate
	return r.parse(body, dur), nil
}

func (r *Remote) prepare(ctx context.Context, pcm []float32) (string, func(), error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	wavPath := filepath.Join(r.cfg.TempDir, TempPrefix+id+".wav")
	if err := audio.WriteWAVFile(wavPath, pcm, config.SampleRate); err != nil {
		return "", nil, err
	}
	if !ffmpeg.NeedsConversion(r.cfg.Codec, r.cfg.Container) {
		return wavPath, func() { _ = os.Remove(wavPath) }, nil
	}

	outPath := strings.TrimSuffix(wavPath, ".wav") + ffmpeg.Extension(r.cfg.Container)
	opts := ffmpeg.Options{Codec: r.cfg.Codec, SampleRate: config.SampleRate, Channels: 1}
	if err := ffmpeg.Convert(ctx, opts, wavPath, outPath, r.log); err != nil {
		// upload the WAV rather than fail the cycle
		r.log.Warn("encoding failed, uploading wav", "err", err)
		_ = os.Remove(outPath)
		return wavPath, func() { _ = os.Remove(wavPath) }, nil
	}
	_ = os.Remove(wavPath)
	return outPath, func() { _ = os.Remove(outPath) }, nil
}

func (r *Remote) upload(ctx context.Context, path string, opts Options) ([]byte, error) {
	delay := r.cfg.RetryDelay
	var (
		lastErr  error
		lastBody []byte
	)
	for try := 1; ; try++ {
		body, err := r.doUpload(ctx, path, opts)
		if err == nil {
			return body, nil
		}
		lastErr, lastBody = err, body
		r.log.Debug("upload attempt failed", "attempt", try, "err", err, "response", formatResponse(body))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if try >= r.cfg.MaxRetry {
			return nil, &RetryExhaustedError{Attempts: try, MaxRetry: r.cfg.MaxRetry, Last: lastErr, Body: lastBody}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (r *Remote) doUpload(ctx context.Context, path string, opts Options) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if r.cfg.Model != "" {
		_ = writer.WriteField("model", r.cfg.Model)
	}
	if opts.Language != "" {
		_ = writer.WriteField("language", opts.Language)
	}
	if opts.VAD {
		_ = writer.WriteField("vad_filter", "true")
	}
	_ = writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	req.Header.Set("User-Agent", "win-voice/1.0")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	r.log.Debug("upload finished", "status", resp.StatusCode, "proto", resp.Proto, "elapsed", time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return respBody, fmt.Errorf("status %d", resp.StatusCode)
	}
	return respBody, nil
}

func (r *Remote) parse(body []byte, dur time.Duration) []Segment {
	if r.cfg.SegmentsPath != "" {
		if spans, ok := jsonpath.ExtractSpans(body, r.cfg.SegmentsPath); ok {
			segs := make([]Segment, len(spans))
			for i, s := range spans {
				segs[i] = Segment{
					Start: time.Duration(s.Start * float64(time.Second)),
					End:   time.Duration(s.End * float64(time.Second)),
					Text:  s.Text,
				}
			}
			return segs
		}
	}
	text := jsonpath.ExtractTextFromResponse(body, r.cfg.TextPath)
	if text == "" {
		return nil
	}
	return []Segment{{End: dur, Text: text}}
}

func formatResponse(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	const maxText = 1000
	const maxBin = 256

	if utf8.Valid(b) {
		s := string(b)
		if len(s) > maxText {
			return fmt.Sprintf("%s... (truncated, total %d bytes)", s[:maxText], len(b))
		}
		return s
	}
	if len(b) > maxBin {
		return fmt.Sprintf("<binary %d bytes, prefix hex: %s...>", len(b), hex.EncodeToString(b[:maxBin]))
	}
	return fmt.Sprintf("<binary %d bytes, hex: %s>", len(b), hex.EncodeToString(b))
}
