package hotkey

import xhotkey "golang.design/x/hotkey"

var comboModifiers = map[string]xhotkey.Modifier{
	"alt": xhotkey.Mod1, "alt_l": xhotkey.Mod1, "alt_r": xhotkey.Mod1,
	"ctrl": xhotkey.ModCtrl, "ctrl_l": xhotkey.ModCtrl, "ctrl_r": xhotkey.ModCtrl,
	"shift": xhotkey.ModShift, "shift_l": xhotkey.ModShift, "shift_r": xhotkey.ModShift,
	"win": xhotkey.Mod4,
}
