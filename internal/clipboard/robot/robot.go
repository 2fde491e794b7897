// Package robot sends the paste keystroke through robotgo, for platforms
// keybd_event does not cover.
package robot

import (
	"github.com/go-vgo/robotgo"

	"github.com/coleski/win-voice/internal/clipboard"
)

// Keys implements clipboard.Keystroker.
type Keys struct{}

func (Keys) Paste() error {
	return robotgo.KeyTap("v", clipboard.PasteModifier())
}
