package app

import (
	"fmt"
	"io"

	"github.com/coleski/win-voice/internal/audio/capture"
	"github.com/coleski/win-voice/internal/config"
)

// SaveSettings writes the explicitly set flags into the config file at
// path. The running process is unaffected; values apply on next launch.
func SaveSettings(path string, fv *config.FlagValues) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !config.IsNotExist(err) {
		return cfg, fmt.Errorf("not overwriting unreadable config: %w", err)
	}
	config.ApplyFlags(&cfg, fv)
	if err := config.Validate(&cfg); err != nil {
		return cfg, err
	}
	if err := config.Save(path, cfg); err != nil {
		return cfg, fmt.Errorf("save %s: %w", path, err)
	}
	return cfg, nil
}

// ListDevices prints the input devices usable as "microphone".
func ListDevices(w io.Writer) error {
	devs, err := capture.Devices()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Fprintln(w, "no input devices found")
		return nil
	}
	for _, d := range devs {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s (%s, %d ch)\n", mark, d.Index, d.Name, d.HostAPI, d.Channels)
	}
	return nil
}
