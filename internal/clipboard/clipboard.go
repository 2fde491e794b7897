// Package clipboard pastes text into the focused window by way of the
// system clipboard and a synthesized paste keystroke.
package clipboard

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/coleski/win-voice/internal/log"
)

// ErrUnsupported is returned for keystroke backends this build lacks.
var ErrUnsupported = errors.New("clipboard: keystroke backend not supported on this platform")

// Clipboard reads and writes clipboard text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Keystroker sends the paste key combination to the focused window.
type Keystroker interface {
	Paste() error
}

// System is the OS clipboard.
type System struct{}

func (System) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (System) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Actuator writes text to the clipboard, waits Delay for it to settle and
// sends the paste keystroke. Success of the paste is not verified.
type Actuator struct {
	Clipboard Clipboard
	Keys      Keystroker
	Delay     time.Duration
	// Restore puts the previous clipboard text back RestoreDelay after pasting.
	Restore      bool
	RestoreDelay time.Duration
	Logger       *log.Logger

	sleep func(time.Duration)
}

func (a *Actuator) wait(d time.Duration) {
	if d <= 0 {
		return
	}
	if a.sleep != nil {
		a.sleep(d)
		return
	}
	time.Sleep(d)
}

// Paste delivers text. Empty text is ignored.
func (a *Actuator) Paste(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var orig string
	var haveOrig bool
	if a.Restore {
		if s, err := a.Clipboard.ReadAll(); err == nil {
			orig, haveOrig = s, true
		}
	}

	if err := a.Clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	a.wait(a.Delay)
	if err := a.Keys.Paste(); err != nil {
		return fmt.Errorf("send paste keystroke: %w", err)
	}
	a.Logger.Debug("pasted", "chars", len(text))

	if haveOrig {
		d := a.RestoreDelay
		if d <= 0 {
			d = 120 * time.Millisecond
		}
		a.wait(d)
		if err := a.Clipboard.WriteAll(orig); err != nil {
			a.Logger.Warn("restore clipboard failed", "err", err)
		}
	}
	return nil
}

// PasteModifier is the modifier of the paste combination on this OS.
func PasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// NewKeystroker returns the keystroke backend by name: keybd, robotgo, or
// auto (keybd where available, robotgo elsewhere). robotgo is the backend
// used for the robotgo name and the auto fallback.
func NewKeystroker(backend string, robotgo Keystroker) (Keystroker, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "auto":
		if k, err := NewKeybd(); err == nil {
			return k, nil
		}
		if robotgo == nil {
			return nil, ErrUnsupported
		}
		return robotgo, nil
	case "keybd":
		k, err := NewKeybd()
		if err != nil {
			return nil, err
		}
		return k, nil
	case "robotgo":
		if robotgo == nil {
			return nil, ErrUnsupported
		}
		return robotgo, nil
	}
	return nil, fmt.Errorf("unknown paste backend %q", backend)
}
