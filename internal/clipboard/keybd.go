//go:build windows || linux

package clipboard

import (
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Keybd sends Ctrl+V through keybd_event.
type Keybd struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

func NewKeybd() (*Keybd, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "linux" {
		// uinput needs a moment before the virtual device accepts events
		time.Sleep(2 * time.Second)
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	return &Keybd{kb: kb}, nil
}

func (k *Keybd) Paste() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kb.Launching()
}
