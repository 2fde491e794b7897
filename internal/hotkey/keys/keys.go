// Package keys names the keys usable as a hotkey and maps them to the codes
// reported by the key event and key state backends.
package keys

import (
	"fmt"
	"strconv"
	"strings"
)

// keyDef maps a key name to its uiohook key codes (as reported by gohook)
// and its Windows virtual key codes. Any listed code counts as the key.
type keyDef struct {
	display string
	hook    []int
	vk      []int
}

var modifiers = map[string]keyDef{
	"alt":     {"Alt", []int{56, 3640}, []int{0x12}},
	"alt_l":   {"Left Alt", []int{56}, []int{0xA4}},
	"alt_r":   {"Right Alt", []int{3640}, []int{0xA5}},
	"ctrl":    {"Ctrl", []int{29, 3613}, []int{0x11}},
	"ctrl_l":  {"Left Ctrl", []int{29}, []int{0xA2}},
	"ctrl_r":  {"Right Ctrl", []int{3613}, []int{0xA3}},
	"shift":   {"Shift", []int{42, 54}, []int{0x10}},
	"shift_l": {"Left Shift", []int{42}, []int{0xA0}},
	"shift_r": {"Right Shift", []int{54}, []int{0xA1}},
	"win":     {"Win", []int{3675, 3676}, []int{0x5B, 0x5C}},
}

var named = map[string]keyDef{
	"caps_lock": {"Caps Lock", []int{58}, []int{0x14}},
	"space":     {"Space", []int{57}, []int{0x20}},
	"esc":       {"Esc", []int{1}, []int{0x1B}},
	"enter":     {"Enter", []int{28}, []int{0x0D}},
	"tab":       {"Tab", []int{15}, []int{0x09}},
	"backspace": {"Backspace", []int{14}, []int{0x08}},
}

var aliases = map[string]string{
	"menu":     "alt",
	"control":  "ctrl",
	"meta":     "win",
	"super":    "win",
	"cmd":      "win",
	"capslock": "caps_lock",
	"caps":     "caps_lock",
	"escape":   "esc",
	"return":   "enter",
}

// uiohook codes for the letter keys, in keyboard row order.
var letterRows = []struct {
	first int
	keys  string
}{
	{16, "qwertyuiop"},
	{30, "asdfghjkl"},
	{44, "zxcvbnm"},
}

func lookup(name string) (keyDef, bool) {
	if a, ok := aliases[name]; ok {
		name = a
	}
	if d, ok := modifiers[name]; ok {
		return d, true
	}
	if d, ok := named[name]; ok {
		return d, true
	}
	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 12 {
			code := 58 + n
			if n > 10 {
				code = 76 + n
			}
			return keyDef{display: "F" + strconv.Itoa(n), hook: []int{code}, vk: []int{0x70 + n - 1}}, true
		}
	}
	if len(name) == 1 {
		ch := name[0]
		switch {
		case ch >= '1' && ch <= '9':
			return keyDef{display: name, hook: []int{int(ch-'1') + 2}, vk: []int{int(ch)}}, true
		case ch == '0':
			return keyDef{display: name, hook: []int{11}, vk: []int{'0'}}, true
		case ch >= 'a' && ch <= 'z':
			for _, row := range letterRows {
				if i := strings.IndexByte(row.keys, ch); i >= 0 {
					return keyDef{display: strings.ToUpper(name), hook: []int{row.first + i}, vk: []int{int(ch - 'a' + 'A')}}, true
				}
			}
		}
	}
	return keyDef{}, false
}

// Key is a parsed hotkey: one key, or modifiers plus a base key.
type Key struct {
	Name    string
	Display string
	// Mods and Base are set for combos such as ctrl+shift+space.
	Mods []string
	Base string
	// Hook and VK hold one group per key of the combo; the hotkey is down
	// when every group has at least one code down.
	Hook [][]int
	VK   [][]int
}

// Combo reports whether the key needs modifiers.
func (k Key) Combo() bool { return len(k.Mods) > 0 }

func (k Key) String() string { return k.Display }

// Parse accepts names like "alt", "ctrl_r", "caps_lock", "f8" or combos such
// as "ctrl+shift+space".
func Parse(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if a, ok := aliases[parts[i]]; ok {
			parts[i] = a
		}
	}

	k := Key{Name: strings.Join(parts, "+")}
	var display []string
	for i, p := range parts {
		d, ok := lookup(p)
		if !ok {
			return Key{}, fmt.Errorf("unsupported key token %q in %q", p, s)
		}
		if i < len(parts)-1 {
			if _, isMod := modifiers[p]; !isMod {
				return Key{}, fmt.Errorf("%q is not a modifier in %q", p, s)
			}
			k.Mods = append(k.Mods, p)
		} else if len(parts) > 1 {
			k.Base = p
		}
		display = append(display, d.display)
		k.Hook = append(k.Hook, d.hook)
		k.VK = append(k.VK, d.vk)
	}
	k.Display = strings.Join(display, "+")
	return k, nil
}

// Validate reports whether s names a supported key or combo.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// DisplayName returns a human readable name for a hotkey setting, or the
// setting itself when it does not parse.
func DisplayName(s string) string {
	k, err := Parse(s)
	if err != nil {
		return s
	}
	return k.Display
}
