package hotkey

import (
	"context"
	"time"

	"github.com/coleski/win-voice/internal/log"
)

// KeyStateFunc reports whether a virtual key is down right now.
type KeyStateFunc func(vk int) bool

// PollMonitor samples raw key state at a fixed interval and detects edges
// itself. It works where no global key event API is available.
type PollMonitor struct {
	Key      Key
	Interval time.Duration
	State    KeyStateFunc
	Logger   *log.Logger
}

func (p *PollMonitor) Run(ctx context.Context, h Handler) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	deb := NewDebouncer(p.Key.VK)
	p.Logger.Info("polling hotkey", "key", p.Key.Display, "interval", interval)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if deb.Pressed() {
				h.Release()
			}
			return nil
		case <-t.C:
			for _, g := range p.Key.VK {
				for _, vk := range g {
					dispatch(h, deb.Set(vk, p.State(vk)))
				}
			}
		}
	}
}
