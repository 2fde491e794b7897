package hotkey

import xhotkey "golang.design/x/hotkey"

var comboModifiers = map[string]xhotkey.Modifier{
	"alt": xhotkey.ModAlt, "alt_l": xhotkey.ModAlt, "alt_r": xhotkey.ModAlt,
	"ctrl": xhotkey.ModCtrl, "ctrl_l": xhotkey.ModCtrl, "ctrl_r": xhotkey.ModCtrl,
	"shift": xhotkey.ModShift, "shift_l": xhotkey.ModShift, "shift_r": xhotkey.ModShift,
	"win": xhotkey.ModWin,
}
