// Package app wires the dictation pipeline and the one-shot commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/audio/capture"
	"github.com/coleski/win-voice/internal/clipboard"
	"github.com/coleski/win-voice/internal/clipboard/robot"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/hotkey"
	"github.com/coleski/win-voice/internal/log"
	"github.com/coleski/win-voice/internal/metrics"
	"github.com/coleski/win-voice/internal/notify"
	"github.com/coleski/win-voice/internal/record"
	"github.com/coleski/win-voice/internal/transcribe"
	"github.com/coleski/win-voice/internal/ui"
	"github.com/coleski/win-voice/internal/ui/tray"
)

// Name is shown in the tray and in notifications.
const Name = "win-voice"

// readyHideDelay is how long the ready indicator stays up.
const readyHideDelay = 1500 * time.Millisecond

// RunDictation records while the hotkey is held and pastes the transcript on
// release. It returns when ctx is done or the tray Quit item is chosen.
// Errors are returned only for startup failures.
func RunDictation(ctx context.Context, cfg config.Config, lg *log.Logger) error {
	alg := lg.Component("app")
	CleanupTempFiles(config.TempDir(&cfg), alg)

	key, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	mon, err := hotkey.New(key, hotkey.Options{
		Mode:         cfg.HotkeyMode,
		PollInterval: cfg.PollInterval(),
		Logger:       lg,
	})
	if err != nil {
		return fmt.Errorf("hotkey %s: %w", key, err)
	}

	keys, err := clipboard.NewKeystroker(cfg.PasteBackend, robot.Keys{})
	if err != nil {
		return fmt.Errorf("paste backend %q: %w", cfg.PasteBackend, err)
	}

	factory, providers, err := EngineFactory(cfg, lg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := ui.NewQueue(0)
	notifier := notify.New(Name, cfg.Cue, cfg.Notification, lg)
	var met *metrics.Metrics
	if cfg.MetricsAddr != "" {
		met = metrics.New()
	}

	holder := &asr.Holder{}
	defer holder.Close()

	worker := &transcribe.Worker{
		Engine: holder,
		Paster: &clipboard.Actuator{
			Clipboard: clipboard.System{},
			Keys:      keys,
			Delay:     cfg.PasteDelay(),
			Restore:   cfg.RestoreClipboard,
			Logger:    lg.Component("paste"),
		},
		Language: cfg.LanguageHint(),
		CacheDir: cacheDir(cfg),
		Logger:   lg,
	}
	observers := record.Observers{&sessionObserver{queue: queue, notifier: notifier}}
	if met != nil {
		worker.Observe = met.ObserveTranscription
		observers = append(observers, met)
	}

	buf := record.NewBuffer(cfg.MaxSamples())
	machine := record.NewMachine(buf, worker, record.Options{
		MinSamples: cfg.MinSamples(),
		Observer:   observers,
		Logger:     lg,
	})

	stream, err := capture.Open(cfg.Microphone, buf, lg)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}

	var presenter ui.Presenter
	if cfg.Tray {
		t := tray.New(Name, cancel, lg)
		t.Start()
		defer t.Stop()
		presenter = t
	} else {
		presenter = ui.NewConsole(lg)
	}

	queue.SetState(ui.StateLoading, "")
	loader := &asr.Loader{Factory: factory, Providers: providers, Logger: lg}
	results := loader.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ui.Run(gctx, queue, presenter) })
	g.Go(func() error { return notifier.Run(gctx) })
	if met != nil {
		g.Go(func() error {
			if err := met.Serve(gctx, cfg.MetricsAddr, lg); err != nil {
				alg.Warn("metrics listener stopped", "addr", cfg.MetricsAddr, "err", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case res := <-results:
			engineReady(res, holder, machine, queue, notifier, met, key, alg)
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		err := mon.Run(gctx, hotkey.HandlerFuncs{
			OnPress: func() {
				if !machine.Start() && !machine.Ready() {
					alg.Debug("hotkey ignored, engine not loaded")
				}
			},
			OnRelease: func() { machine.Stop() },
		})
		if err != nil {
			return fmt.Errorf("hotkey %s: %w", key, err)
		}
		return nil
	})

	alg.Info("started", "hotkey", key.String(), "engine", cfg.Engine, "device", stream.Device())
	runErr := g.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer stop()
	if err := machine.Shutdown(shutdownCtx); err != nil {
		alg.Warn("transcription still running at exit", "err", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	alg.Info("stopped")
	return nil
}

// engineReady installs a loaded engine and enables recording, or reports the
// load failure. Recording stays disabled on failure.
func engineReady(res asr.Result, holder *asr.Holder, m *record.Machine, q *ui.Queue,
	n *notify.Notifier, met *metrics.Metrics, key hotkey.Key, lg *log.Logger) {
	if res.Err != nil {
		lg.Error("engine failed to load", "err", res.Err)
		q.SetState(ui.StateFailed, "")
		n.Play(notify.ErrorCue)
		n.Notify("Model failed to load: " + res.Err.Error())
		return
	}

	holder.Set(res.Engine)
	if met != nil {
		met.EngineLoaded(res.Engine.Name(), res.Provider, res.Elapsed)
	}
	m.SetReady()

	q.SetState(ui.StateReady, "")
	q.HideAfter(readyHideDelay)
	n.Notify("Ready. Hold " + key.String() + " to dictate.")
}

func cacheDir(cfg config.Config) string {
	if cfg.KeepCache && cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return ""
}
