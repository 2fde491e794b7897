package hotkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coleski/win-voice/internal/log"
)

// Handler receives one Press and one Release per physical press.
type Handler interface {
	Press()
	Release()
}

// HandlerFuncs adapts two functions to Handler.
type HandlerFuncs struct {
	OnPress   func()
	OnRelease func()
}

func (h HandlerFuncs) Press() {
	if h.OnPress != nil {
		h.OnPress()
	}
}

func (h HandlerFuncs) Release() {
	if h.OnRelease != nil {
		h.OnRelease()
	}
}

// Monitor watches the hotkey until ctx is done.
type Monitor interface {
	Run(ctx context.Context, h Handler) error
}

// Edge is a debounced transition.
type Edge int

const (
	EdgeNone Edge = iota
	EdgePress
	EdgeRelease
)

// Debouncer turns raw key events, including auto-repeat, into edges. The
// hotkey is down while every group has at least one code held.
type Debouncer struct {
	groups  [][]int
	tracked map[int]bool
	held    map[int]bool
	pressed bool
}

func NewDebouncer(groups [][]int) *Debouncer {
	d := &Debouncer{
		groups:  groups,
		tracked: make(map[int]bool),
		held:    make(map[int]bool),
	}
	for _, g := range groups {
		for _, c := range g {
			d.tracked[c] = true
		}
	}
	return d
}

// Set records a code as down or up and returns the resulting edge.
func (d *Debouncer) Set(code int, down bool) Edge {
	if !d.tracked[code] {
		return EdgeNone
	}
	if down {
		d.held[code] = true
	} else {
		delete(d.held, code)
	}

	now := d.satisfied()
	switch {
	case now && !d.pressed:
		d.pressed = true
		return EdgePress
	case !now && d.pressed:
		d.pressed = false
		return EdgeRelease
	}
	return EdgeNone
}

// Pressed reports the debounced state.
func (d *Debouncer) Pressed() bool { return d.pressed }

func (d *Debouncer) satisfied() bool {
	if len(d.groups) == 0 {
		return false
	}
	for _, g := range d.groups {
		ok := false
		for _, c := range g {
			if d.held[c] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func dispatch(h Handler, e Edge) {
	switch e {
	case EdgePress:
		h.Press()
	case EdgeRelease:
		h.Release()
	}
}

// Options configures New.
type Options struct {
	Mode         string
	PollInterval time.Duration
	Logger       *log.Logger
}

// New returns the monitor for mode: hook, poll, combo, or auto (combo
// monitor for combos, hook monitor for single keys).
func New(k Key, opts Options) (Monitor, error) {
	lg := opts.Logger.Component("hotkey")
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" || mode == "auto" {
		mode = "hook"
		if k.Combo() {
			mode = "combo"
		}
	}

	switch mode {
	case "hook":
		return &HookMonitor{Key: k, Logger: lg}, nil
	case "poll":
		state, err := SystemKeyState()
		if err != nil {
			return nil, err
		}
		return &PollMonitor{Key: k, Interval: opts.PollInterval, State: state, Logger: lg}, nil
	case "combo":
		if !k.Combo() {
			return nil, fmt.Errorf("combo mode needs modifiers, got %q", k.Name)
		}
		return &ComboMonitor{Key: k, Logger: lg}, nil
	}
	return nil, fmt.Errorf("unknown hotkey mode %q", opts.Mode)
}
