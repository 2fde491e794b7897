package ui

import "github.com/coleski/win-voice/internal/log"

// Console presents state changes as log lines.
type Console struct {
	log     *log.Logger
	visible bool
}

func NewConsole(lg *log.Logger) *Console {
	return &Console{log: lg.Component("ui")}
}

func (c *Console) SetState(s State, text string) {
	c.visible = true
	c.log.Info(text, "state", s.String())
}

func (c *Console) Show() {
	c.visible = true
	c.log.Debug("shown")
}

func (c *Console) Hide() {
	if c.visible {
		c.log.Debug("hidden")
	}
	c.visible = false
}
