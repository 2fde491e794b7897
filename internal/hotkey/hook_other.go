//go:build !windows && !linux && !darwin

package hotkey

import (
	"context"

	"github.com/coleski/win-voice/internal/log"
)

type HookMonitor struct {
	Key    Key
	Logger *log.Logger
}

func (m *HookMonitor) Run(ctx context.Context, h Handler) error {
	return ErrUnsupported
}
