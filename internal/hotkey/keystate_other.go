//go:build !windows

package hotkey

// SystemKeyState is only available on Windows.
func SystemKeyState() (KeyStateFunc, error) {
	return nil, ErrUnsupported
}
