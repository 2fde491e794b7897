// Package icon holds the tray icon artwork.
package icon

import (
	_ "embed"
	"runtime"
)

var (
	//go:embed icon.ico
	icoData []byte
	//go:embed icon.png
	pngData []byte
)

// Data returns the icon in the format the platform tray expects: ICO on
// Windows, PNG elsewhere.
func Data() []byte {
	return forOS(runtime.GOOS)
}

func forOS(goos string) []byte {
	if goos == "windows" {
		return icoData
	}
	return pngData
}
