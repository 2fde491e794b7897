package hotkey

import xhotkey "golang.design/x/hotkey"

var comboModifiers = map[string]xhotkey.Modifier{
	"alt": xhotkey.ModOption, "alt_l": xhotkey.ModOption, "alt_r": xhotkey.ModOption,
	"ctrl": xhotkey.ModCtrl, "ctrl_l": xhotkey.ModCtrl, "ctrl_r": xhotkey.ModCtrl,
	"shift": xhotkey.ModShift, "shift_l": xhotkey.ModShift, "shift_r": xhotkey.ModShift,
	"win": xhotkey.ModCmd,
}
