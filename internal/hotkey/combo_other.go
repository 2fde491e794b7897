//go:build !windows && !linux && !darwin

package hotkey

import (
	"context"

	"github.com/coleski/win-voice/internal/log"
)

type ComboMonitor struct {
	Key    Key
	Logger *log.Logger
}

func (m *ComboMonitor) Run(ctx context.Context, h Handler) error {
	return ErrUnsupported
}
