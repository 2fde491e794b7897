package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/coleski/win-voice/internal/asr"
	"github.com/coleski/win-voice/internal/asr/sherpa"
	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// localProviders is the execution provider preference of the local engine.
var localProviders = []string{"cuda", "cpu"}

// EngineFactory returns the factory for cfg.Engine and the providers to try.
func EngineFactory(cfg config.Config, lg *log.Logger) (asr.Factory, []string, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "local":
		f := sherpa.Factory(sherpa.Config{
			ModelsDir: cfg.ModelsDir,
			Model:     cfg.Model,
			Language:  cfg.LanguageHint(),
			VADModel:  cfg.VADModel,
			Threads:   cfg.Threads,
		}, lg)
		return f, localProviders, nil

	case "remote":
		rc := asr.RemoteConfigFrom(cfg)
		f := func(context.Context, string) (asr.Engine, error) {
			r, err := asr.NewRemote(rc, nil, lg)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
		return f, []string{"remote"}, nil

	case "openai":
		f := func(context.Context, string) (asr.Engine, error) {
			client, err := asr.NewHTTPClient(
				asr.RemoteConfigFrom(cfg).Timeout, cfg.EnableHTTP2, cfg.VerifySSL)
			if err != nil {
				return nil, err
			}
			return asr.NewOpenAI(cfg.APIToken, cfg.APIEndpoint, cfg.APIModel,
				config.TempDir(&cfg), client, lg), nil
		}
		return f, []string{"openai"}, nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q", cfg.Engine)
}
