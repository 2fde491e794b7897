package asr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/coleski/win-voice/internal/audio"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// OpenAI transcribes through an OpenAI compatible audio API.
type OpenAI struct {
	client  *openai.Client
	model   string
	tempDir string
	log     *log.Logger
}

// NewOpenAI creates the engine. baseURL may be empty for the public API.
func NewOpenAI(token, baseURL, model, tempDir string, httpClient *http.Client, lg *log.Logger) *OpenAI {
	cc := openai.DefaultConfig(token)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(cc),
		model:   model,
		tempDir: tempDir,
		log:     lg.Component("openai"),
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Transcribe(ctx context.Context, pcm []float32, opts Options) ([]Segment, error) {
	path := filepath.Join(o.tempDir, TempPrefix+uuid.NewString()+".wav")
	if err := audio.WriteWAVFile(path, pcm, config.SampleRate); err != nil {
		return nil, err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	start := time.Now()
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: filepath.Base(path),
		Reader:   f,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	o.log.Debug("transcription received", "segments", len(resp.Segments), "language", resp.Language, "elapsed", time.Since(start))

	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil, nil
		}
		return []Segment{{End: time.Duration(resp.Duration * float64(time.Second)), Text: resp.Text}}, nil
	}
	segs := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segs = append(segs, Segment{
			Start: time.Duration(s.Start * float64(time.Second)),
			End:   time.Duration(s.End * float64(time.Second)),
			Text:  s.Text,
		})
	}
	return segs, nil
}
