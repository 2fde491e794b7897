// Command win-voice is a push-to-talk dictation tool: hold the hotkey to
// record, release it to transcribe and paste into the focused window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/coleski/win-voice/internal/app"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/hotkey/keys"
	"github.com/coleski/win-voice/internal/log"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, `Usage: %s [options]

Hold the hotkey to record from the microphone, release it to transcribe the
recording and paste the text at the cursor.

Modes:
  (default)             run the dictation loop until Ctrl+C or tray Quit
  -file <audio>         transcribe an audio file into a .txt and exit
  -settings             save the given override flags into the config file and exit
  -list-devices         list input devices and exit

Settings precedence: flags > environment (WINVOICE_*, .env) > config file > defaults.

Options:
`, name)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  %s -hotkey ctrl+shift+space -language auto
  %s -engine remote -api-endpoint https://api.example/v1/audio/transcriptions -api-token sk-xxx
  %s -settings -hotkey f9 -model base.en
  %s -file meeting.m4a -output meeting.txt
`, name, name, name, name)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("win-voice", flag.ContinueOnError)
	fs.Usage = usage(fs)
	configPath := fs.String("config", "", "path to config file (.json, .yaml); default config.json next to the executable")
	envPath := fs.String("env", ".env", "dotenv file with WINVOICE_* overrides")
	filePath := fs.String("file", "", "transcribe this audio file instead of dictating")
	outPath := fs.String("output", "", "transcript path for -file (default <name>.txt)")
	settings := fs.Bool("settings", false, "persist the given flags into the config file and exit")
	listDevices := fs.Bool("list-devices", false, "list input devices and exit")
	fv := config.BindFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if *listDevices {
		if err := app.ListDevices(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "[main] list devices: %v\n", err)
			return 1
		}
		return 0
	}

	if *settings {
		if !fv.AnySet() {
			fmt.Fprintln(os.Stderr, "[main] -settings needs at least one override flag")
			return 2
		}
		if _, err := app.SaveSettings(path, fv); err != nil {
			fmt.Fprintf(os.Stderr, "[main] save settings: %v\n", err)
			return 1
		}
		fmt.Printf("[main] saved %v to %s; restart to apply\n", fv.Names(), path)
		return 0
	}

	cfg, loadErr := config.Load(path)
	var warnings []error
	switch {
	case loadErr == nil:
	case config.IsNotExist(loadErr):
		if err := config.SaveDefault(path); err != nil {
			warnings = append(warnings, fmt.Errorf("write default config: %w", err))
		} else {
			warnings = append(warnings, fmt.Errorf("created default config at %s", path))
		}
	default:
		warnings = append(warnings, fmt.Errorf("%w; using defaults", loadErr))
	}
	warnings = append(warnings, config.Sanitize(&cfg)...)

	if err := config.ApplyEnv(&cfg, config.EnvLookup(*envPath)); err != nil {
		fmt.Fprintf(os.Stderr, "[main] invalid environment: %v\n", err)
		return 2
	}
	config.ApplyFlags(&cfg, fv)
	if err := config.Validate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[main] invalid config: %v\n", err)
		return 2
	}
	if err := config.InitCacheDir(&cfg); err != nil {
		warnings = append(warnings, err)
	}

	lg := log.New(log.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	for _, w := range warnings {
		lg.Warn("config", "msg", w.Error())
	}
	lg.Info("config loaded", "path", path, "engine", cfg.Engine, "model", cfg.Model, "hotkey", keys.DisplayName(cfg.Hotkey), "log", lg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *filePath != "" {
		out, err := app.RunFileMode(ctx, cfg, *filePath, *outPath, lg)
		if err != nil {
			lg.Error("file mode failed", "file", *filePath, "err", err)
			return 3
		}
		fmt.Println(out)
		return 0
	}

	if err := app.RunDictation(ctx, cfg, lg); err != nil {
		lg.Error("startup failed", "err", err)
		return 1
	}
	return 0
}
