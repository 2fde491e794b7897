package keys

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		display string
		combo   bool
		hook    [][]int
		vk      [][]int
	}{
		{"alt", "alt", "Alt", false, [][]int{{56, 3640}}, [][]int{{0x12}}},
		{" ALT_R ", "alt_r", "Right Alt", false, [][]int{{3640}}, [][]int{{0xA5}}},
		{"ctrl_l", "ctrl_l", "Left Ctrl", false, [][]int{{29}}, [][]int{{0xA2}}},
		{"caps_lock", "caps_lock", "Caps Lock", false, [][]int{{58}}, [][]int{{0x14}}},
		{"capslock", "caps_lock", "Caps Lock", false, [][]int{{58}}, [][]int{{0x14}}},
		{"f1", "f1", "F1", false, [][]int{{59}}, [][]int{{0x70}}},
		{"f10", "f10", "F10", false, [][]int{{68}}, [][]int{{0x79}}},
		{"f12", "f12", "F12", false, [][]int{{88}}, [][]int{{0x7B}}},
		{"ctrl+shift+space", "ctrl+shift+space", "Ctrl+Shift+Space", true,
			[][]int{{29, 3613}, {42, 54}, {57}}, [][]int{{0x11}, {0x10}, {0x20}}},
		{"control+q", "ctrl+q", "Ctrl+Q", true, [][]int{{29, 3613}, {16}}, [][]int{{0x11}, {'Q'}}},
		{"alt+1", "alt+1", "Alt+1", true, [][]int{{56, 3640}, {2}}, [][]int{{0x12}, {'1'}}},
	}
	for _, tt := range tests {
		k, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if k.Name != tt.name || k.Display != tt.display || k.Combo() != tt.combo {
			t.Errorf("Parse(%q) = %q/%q combo=%v", tt.in, k.Name, k.Display, k.Combo())
		}
		if !reflect.DeepEqual(k.Hook, tt.hook) || !reflect.DeepEqual(k.VK, tt.vk) {
			t.Errorf("Parse(%q) codes hook=%v vk=%v", tt.in, k.Hook, k.VK)
		}
	}
}

func TestParseLetters(t *testing.T) {
	for in, code := range map[string]int{"a": 30, "m": 50, "p": 25, "z": 44} {
		k, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if k.Hook[0][0] != code {
			t.Errorf("Parse(%q) hook code = %d, want %d", in, k.Hook[0][0], code)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "hyper", "f13", "q+ctrl", "ctrl+", "ctrl+nope"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("ctrl_r"); got != "Right Ctrl" {
		t.Fatalf("DisplayName(ctrl_r) = %q", got)
	}
	if got := DisplayName("bogus"); got != "bogus" {
		t.Fatalf("DisplayName(bogus) = %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("ctrl+shift+space"); err != nil {
		t.Fatalf("Validate(ctrl+shift+space): %v", err)
	}
	if err := Validate("bogus_key"); err == nil {
		t.Fatal("Validate accepted bogus_key")
	}
}
