package asr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coleski/win-voice/internal/log"
)

// Factory builds an engine for one execution provider ("cuda", "cpu", ...).
type Factory func(ctx context.Context, provider string) (Engine, error)

// Result is the outcome of a load.
type Result struct {
	Engine   Engine
	Provider string
	Elapsed  time.Duration
	Err      error
}

// Loader builds an engine once, trying providers in preference order.
type Loader struct {
	Factory   Factory
	Providers []string
	Logger    *log.Logger
}

// Load tries each provider in order and returns the first engine that
// initializes. A failed provider is logged and the next one is tried.
func (l *Loader) Load(ctx context.Context) Result {
	start := time.Now()
	lg := l.Logger.Component("asr")
	providers := l.Providers
	if len(providers) == 0 {
		providers = []string{"cpu"}
	}

	var errs []error
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return Result{Err: err, Elapsed: time.Since(start)}
		}
		lg.Info("loading engine", "provider", p)
		e, err := l.build(ctx, p)
		if err != nil {
			lg.Warn("engine failed to initialize", "provider", p, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		elapsed := time.Since(start)
		lg.Info("engine loaded", "engine", e.Name(), "provider", p, "elapsed", elapsed)
		return Result{Engine: e, Provider: p, Elapsed: elapsed}
	}
	return Result{Err: fmt.Errorf("%w: %w", ErrNoProvider, errors.Join(errs...)), Elapsed: time.Since(start)}
}

func (l *Loader) build(ctx context.Context, provider string) (e Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	e, err = l.Factory(ctx, provider)
	if err == nil && e == nil {
		err = errors.New("factory returned no engine")
	}
	return e, err
}

// Start runs Load on its own goroutine. The channel receives exactly one
// Result.
func (l *Loader) Start(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- l.Load(ctx)
	}()
	return ch
}
