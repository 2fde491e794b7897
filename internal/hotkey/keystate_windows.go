//go:build windows

package hotkey

import "golang.org/x/sys/windows"

var procGetAsyncKeyState = windows.NewLazySystemDLL("user32.dll").NewProc("GetAsyncKeyState")

// SystemKeyState returns a key state reader backed by GetAsyncKeyState.
func SystemKeyState() (KeyStateFunc, error) {
	if err := procGetAsyncKeyState.Find(); err != nil {
		return nil, err
	}
	return func(vk int) bool {
		st, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
		return st&0x8000 != 0
	}, nil
}
