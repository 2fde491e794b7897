package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/coleski/win-voice/internal/record"
)

func TestObserverCounts(t *testing.T) {
	m := New()
	s := &record.Session{
		Started: time.Now().Add(-2 * time.Second),
		Stopped: time.Now(),
		Dropped: 10,
	}

	m.Started(s)
	if got := testutil.ToFloat64(m.State); got != float64(record.StateRecording) {
		t.Fatalf("state = %v", got)
	}
	m.Discarded(s)

	m.Started(s)
	m.Processing(s)
	if got := testutil.ToFloat64(m.State); got != float64(record.StateProcessing) {
		t.Fatalf("state = %v", got)
	}
	m.Finished(s, record.Transcript{Text: "hi", Delivered: true}, nil)

	m.Started(s)
	m.Processing(s)
	m.Finished(s, record.Transcript{}, nil)

	m.Started(s)
	m.Processing(s)
	m.Finished(s, record.Transcript{}, errors.New("boom"))

	for name, tc := range map[string]struct {
		got, want float64
	}{
		"started":   {testutil.ToFloat64(m.SessionsStarted), 4},
		"discarded": {testutil.ToFloat64(m.SessionsDiscarded), 1},
		"pastes":    {testutil.ToFloat64(m.Pastes), 1},
		"empty":     {testutil.ToFloat64(m.SessionsEmpty), 1},
		"failed":    {testutil.ToFloat64(m.SessionsFailed), 1},
		"dropped":   {testutil.ToFloat64(m.SamplesDropped), 30},
		"state":     {testutil.ToFloat64(m.State), float64(record.StateIdle)},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", name, tc.got, tc.want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.EngineLoaded("local", "cpu", 1500*time.Millisecond)
	m.ObserveTranscription(300 * time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)

	for _, want := range []string{
		`winvoice_engine_info{engine="local",provider="cpu"} 1`,
		"winvoice_engine_load_seconds 1.5",
		"winvoice_transcription_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
