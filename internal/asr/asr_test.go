package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		segs []string
		want string
	}{
		{[]string{" hello", " world "}, "hello world"},
		{[]string{"  ", "\t", ""}, ""},
		{[]string{"one", "  ", "two"}, "one two"},
		{[]string{" spaced   inside "}, "spaced   inside"},
		{nil, ""},
	}
	for _, tt := range tests {
		var segs []Segment
		for _, s := range tt.segs {
			segs = append(segs, Segment{Text: s})
		}
		if got := JoinSegments(segs); got != tt.want {
			t.Errorf("JoinSegments(%q) = %q, want %q", tt.segs, got, tt.want)
		}
	}
}

func TestLoaderFallsBackToCPU(t *testing.T) {
	var tried []string
	l := &Loader{
		Providers: []string{"cuda", "cpu"},
		Factory: func(_ context.Context, p string) (Engine, error) {
			tried = append(tried, p)
			if p == "cuda" {
				return nil, errors.New("no CUDA device")
			}
			return EngineFunc(nil), nil
		},
	}
	res := l.Load(context.Background())
	if res.Err != nil {
		t.Fatalf("Load: %v", res.Err)
	}
	if res.Provider != "cpu" {
		t.Fatalf("provider = %q, want cpu", res.Provider)
	}
	if len(tried) != 2 {
		t.Fatalf("tried %v", tried)
	}
}

func TestLoaderAllProvidersFail(t *testing.T) {
	l := &Loader{
		Providers: []string{"cuda", "cpu"},
		Factory: func(_ context.Context, p string) (Engine, error) {
			if p == "cpu" {
				panic("bad model file")
			}
			return nil, fmt.Errorf("%s unavailable", p)
		},
	}
	res := <-l.Start(context.Background())
	if !errors.Is(res.Err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", res.Err)
	}
	if res.Engine != nil {
		t.Fatalf("engine returned on failure")
	}
}

func TestLoaderNilEngine(t *testing.T) {
	l := &Loader{Factory: func(context.Context, string) (Engine, error) { return nil, nil }}
	if res := l.Load(context.Background()); res.Err == nil {
		t.Fatalf("expected error for nil engine")
	}
}

func TestHolder(t *testing.T) {
	var h Holder
	if _, err := h.Transcribe(context.Background(), nil, Options{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	h.Set(EngineFunc(func(context.Context, []float32, Options) ([]Segment, error) {
		return []Segment{{Text: "hi"}}, nil
	}))
	if !h.Loaded() {
		t.Fatalf("holder not loaded")
	}
	segs, err := h.Transcribe(context.Background(), nil, Options{})
	if err != nil || len(segs) != 1 {
		t.Fatalf("Transcribe = %v, %v", segs, err)
	}
	if err := h.Close(); err != nil || h.Loaded() {
		t.Fatalf("Close left engine loaded")
	}
}

func remoteConfig(t *testing.T, url string) RemoteConfig {
	return RemoteConfig{
		Endpoint:     url,
		Token:        "secret",
		Model:        "whisper-large",
		TextPath:     "result.text",
		SegmentsPath: "segments",
		Codec:        "pcm",
		Container:    "wav",
		Timeout:      2 * time.Second,
		MaxRetry:     2,
		RetryDelay:   0,
		TempDir:      t.TempDir(),
	}
}

func TestRemoteRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("fail"))
	}))
	defer server.Close()

	cfg := remoteConfig(t, server.URL)
	r, err := NewRemote(cfg, &http.Client{Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("NewRemote failed: %v", err)
	}

	_, err = r.Transcribe(context.Background(), make([]float32, 1600), Options{})
	var re *RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if re.Attempts != cfg.MaxRetry || re.MaxRetry != cfg.MaxRetry {
		t.Fatalf("attempts=%d max=%d, want %d", re.Attempts, re.MaxRetry, cfg.MaxRetry)
	}
	if string(re.Body) != "fail" {
		t.Fatalf("last body = %q", re.Body)
	}
	if calls.Load() != int32(cfg.MaxRetry) {
		t.Fatalf("server saw %d calls", calls.Load())
	}
}

func TestRemoteTextPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("language") != "de" || r.FormValue("model") != "whisper-large" || r.FormValue("vad_filter") != "true" {
			t.Errorf("unexpected form: %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if len(b) < 44 || string(b[:4]) != "RIFF" {
				t.Errorf("upload %s is not a wav file", hdr.Filename)
			}
		}
		_, _ = w.Write([]byte(`{"result": {"text": "  guten tag "}}`))
	}))
	defer server.Close()

	r, err := NewRemote(remoteConfig(t, server.URL), server.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	segs, err := r.Transcribe(context.Background(), make([]float32, 32000), Options{Language: "de", VAD: true})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 1 || segs[0].End != 2*time.Second {
		t.Fatalf("segments = %+v", segs)
	}
	if got := JoinSegments(segs); got != "guten tag" {
		t.Fatalf("text = %q", got)
	}
}

func TestRemoteSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "ignored", "segments": [
			{"start": 0.0, "end": 0.5, "text": " hello"},
			{"start": 0.5, "end": 1.25, "text": " world"}]}`))
	}))
	defer server.Close()

	r, err := NewRemote(remoteConfig(t, server.URL), server.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	segs, err := r.Transcribe(context.Background(), make([]float32, 32000), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[1].Start != 500*time.Millisecond || segs[1].End != 1250*time.Millisecond {
		t.Fatalf("segments = %+v", segs)
	}
	if got := JoinSegments(segs); got != "hello world" {
		t.Fatalf("text = %q", got)
	}
}

func TestNewRemoteNeedsEndpoint(t *testing.T) {
	if _, err := NewRemote(RemoteConfig{}, nil, nil); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestOpenAISegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("response_format") != "verbose_json" {
			t.Errorf("response_format = %q", r.FormValue("response_format"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task": "transcribe", "language": "english", "duration": 2.0,
			"segments": [{"id": 0, "start": 0, "end": 1, "text": " hello"}, {"id": 1, "start": 1, "end": 2, "text": " world"}],
			"text": "hello world"}`))
	}))
	defer server.Close()

	o := NewOpenAI("token", server.URL+"/v1", "", t.TempDir(), server.Client(), nil)
	segs, err := o.Transcribe(context.Background(), make([]float32, 32000), Options{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 2 || segs[1].Start != time.Second {
		t.Fatalf("segments = %+v", segs)
	}
	if got := JoinSegments(segs); got != "hello world" {
		t.Fatalf("text = %q", got)
	}
}
