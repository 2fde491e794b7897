//go:build windows || linux || darwin

package hotkey

import (
	"context"
	"fmt"

	xhotkey "golang.design/x/hotkey"

	"github.com/coleski/win-voice/internal/log"
)

var comboKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace, "enter": xhotkey.KeyReturn, "esc": xhotkey.KeyEscape, "tab": xhotkey.KeyTab,
	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3, "4": xhotkey.Key4,
	"5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7, "8": xhotkey.Key8, "9": xhotkey.Key9,
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD, "e": xhotkey.KeyE,
	"f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH, "i": xhotkey.KeyI, "j": xhotkey.KeyJ,
	"k": xhotkey.KeyK, "l": xhotkey.KeyL, "m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO,
	"p": xhotkey.KeyP, "q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX, "y": xhotkey.KeyY,
	"z": xhotkey.KeyZ,
	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3, "f4": xhotkey.KeyF4,
	"f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6, "f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8,
	"f9": xhotkey.KeyF9, "f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
}

// ComboMonitor registers a global modifier combo with the OS and reacts to
// its key down and key up notifications.
type ComboMonitor struct {
	Key    Key
	Logger *log.Logger
}

func (m *ComboMonitor) hotkey() (*xhotkey.Hotkey, error) {
	base, ok := comboKeys[m.Key.Base]
	if !ok {
		return nil, fmt.Errorf("key %q cannot be registered as a combo", m.Key.Base)
	}
	var mods []xhotkey.Modifier
	for _, name := range m.Key.Mods {
		mod, ok := comboModifiers[name]
		if !ok {
			return nil, fmt.Errorf("modifier %q cannot be registered on this platform", name)
		}
		mods = append(mods, mod)
	}
	return xhotkey.New(mods, base), nil
}

func (m *ComboMonitor) Run(ctx context.Context, h Handler) error {
	hk, err := m.hotkey()
	if err != nil {
		return err
	}
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register %s: %w", m.Key.Display, err)
	}
	defer hk.Unregister()
	m.Logger.Info("hotkey registered", "key", m.Key.Display)

	deb := NewDebouncer([][]int{{0}})
	for {
		select {
		case <-ctx.Done():
			if deb.Pressed() {
				h.Release()
			}
			return nil
		case <-hk.Keydown():
			dispatch(h, deb.Set(0, true))
		case <-hk.Keyup():
			dispatch(h, deb.Set(0, false))
		}
	}
}
