// Package tray presents the dictation state in the system tray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/coleski/win-voice/internal/log"
	"github.com/coleski/win-voice/internal/ui"
	"github.com/coleski/win-voice/internal/ui/icon"
)

// Tray is a ui.Presenter backed by getlantern/systray. The tray cannot be
// hidden, so Hide resets the title to the application name.
type Tray struct {
	Title  string
	OnQuit func()

	log  *log.Logger
	once sync.Once

	mu      sync.Mutex
	started bool
	title   string
	tooltip string
}

func New(title string, onQuit func(), lg *log.Logger) *Tray {
	return &Tray{
		Title:   title,
		OnQuit:  onQuit,
		log:     lg.Component("tray"),
		title:   title,
		tooltip: title,
	}
}

// Start runs the tray loop on its own goroutine.
func (t *Tray) Start() {
	go systray.Run(t.onReady, t.onExit)
}

// Stop removes the tray icon.
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) onReady() {
	t.mu.Lock()
	t.started = true
	systray.SetIcon(icon.Data())
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	t.mu.Unlock()

	mQuit := systray.AddMenuItem("Quit", "Quit "+t.Title)

	go func() {
		<-mQuit.ClickedCh
		t.log.Info("quit requested from tray")
		if t.OnQuit != nil {
			t.OnQuit()
		}
	}()
}

func (t *Tray) onExit() {
	t.once.Do(func() { t.log.Debug("tray exited") })
}

func (t *Tray) apply(title, tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title, t.tooltip = title, tooltip
	if !t.started {
		return
	}
	systray.SetTitle(title)
	systray.SetTooltip(tooltip)
}

func (t *Tray) SetState(s ui.State, text string) {
	t.apply(t.Title+": "+text, text)
}

func (t *Tray) Show() {}

func (t *Tray) Hide() {
	t.apply(t.Title, t.Title)
}
