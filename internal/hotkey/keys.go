package hotkey

import (
	"errors"

	"github.com/coleski/win-voice/internal/hotkey/keys"
)

// ErrUnsupported is returned by monitors that cannot run on this platform.
var ErrUnsupported = errors.New("hotkey: not supported on this platform")

// Key is a parsed hotkey.
type Key = keys.Key

// Parse parses a hotkey setting; see keys.Parse.
func Parse(s string) (Key, error) {
	return keys.Parse(s)
}
