package app

import (
	"github.com/coleski/win-voice/internal/notify"
	"github.com/coleski/win-voice/internal/record"
	"github.com/coleski/win-voice/internal/ui"
)

// sessionObserver maps machine transitions onto presentation commands and
// cues. Both sinks are non-blocking queues.
type sessionObserver struct {
	queue    *ui.Queue
	notifier *notify.Notifier
}

func (o *sessionObserver) Started(*record.Session) {
	o.queue.SetState(ui.StateRecording, "")
	o.queue.Show()
	o.notifier.Play(notify.StartCue)
}

func (o *sessionObserver) Discarded(*record.Session) {
	o.queue.SetState(ui.StateReady, "")
	o.queue.Hide()
}

func (o *sessionObserver) Processing(*record.Session) {
	o.queue.SetState(ui.StateProcessing, "")
	o.notifier.Play(notify.StopCue)
}

func (o *sessionObserver) Finished(_ *record.Session, t record.Transcript, err error) {
	switch {
	case err != nil:
		o.queue.SetState(ui.StateReady, "Transcription failed")
		o.notifier.Play(notify.ErrorCue)
		o.notifier.Notify("Transcription failed: " + err.Error())
	case t.Text == "":
		o.queue.SetState(ui.StateReady, "Nothing recognized")
	default:
		o.queue.SetState(ui.StateReady, preview(t.Text))
	}
	o.queue.HideAfter(readyHideDelay)
}

// previewRunes is how much of a transcript the indicator shows.
const previewRunes = 40

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes])
}
