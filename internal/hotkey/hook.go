//go:build windows || linux || darwin

package hotkey

import (
	"context"
	"errors"

	hook "github.com/robotn/gohook"

	"github.com/coleski/win-voice/internal/log"
)

// HookMonitor subscribes to global key events. Only one may run per process.
type HookMonitor struct {
	Key    Key
	Logger *log.Logger
}

func (m *HookMonitor) Run(ctx context.Context, h Handler) error {
	events := hook.Start()
	defer hook.End()

	deb := NewDebouncer(m.Key.Hook)
	m.Logger.Info("listening for hotkey", "key", m.Key.Display)
	for {
		select {
		case <-ctx.Done():
			if deb.Pressed() {
				h.Release()
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("hotkey: key event stream closed")
			}
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold:
				dispatch(h, deb.Set(int(ev.Keycode), true))
			case hook.KeyUp:
				dispatch(h, deb.Set(int(ev.Keycode), false))
			}
		}
	}
}
