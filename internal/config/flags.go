package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// FlagValues records which flags were explicitly set and how each one
// changes a Config.
type FlagValues struct {
	order []string
	apply map[string]func(*Config)
}

func (fv *FlagValues) record(name string, fn func(*Config)) {
	if fv.apply == nil {
		fv.apply = make(map[string]func(*Config))
	}
	if _, ok := fv.apply[name]; !ok {
		fv.order = append(fv.order, name)
	}
	fv.apply[name] = fn
}

type stringFlag struct {
	fv     *FlagValues
	name   string
	value  string
	assign func(*Config, string)
}

func (s *stringFlag) String() string {
	if s == nil {
		return ""
	}
	return s.value
}

func (s *stringFlag) Set(v string) error {
	s.value = v
	s.fv.record(s.name, func(c *Config) { s.assign(c, v) })
	return nil
}

type intFlag struct {
	fv     *FlagValues
	name   string
	value  int
	assign func(*Config, int)
}

func (i *intFlag) String() string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(i.value)
}

func (i *intFlag) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	i.value = n
	i.fv.record(i.name, func(c *Config) { i.assign(c, n) })
	return nil
}

type floatFlag struct {
	fv     *FlagValues
	name   string
	value  float64
	assign func(*Config, float64)
}

func (f *floatFlag) String() string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

func (f *floatFlag) Set(v string) error {
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return err
	}
	f.value = n
	f.fv.record(f.name, func(c *Config) { f.assign(c, n) })
	return nil
}

type boolFlag struct {
	fv     *FlagValues
	name   string
	value  bool
	assign func(*Config, bool)
}

func (b *boolFlag) String() string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(b.value)
}

func parseBoolExt(v string) (bool, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}

func (b *boolFlag) Set(v string) error {
	n, err := parseBoolExt(v)
	if err != nil {
		return err
	}
	b.value = n
	b.fv.record(b.name, func(c *Config) { b.assign(c, n) })
	return nil
}

type micFlag struct {
	fv    *FlagValues
	value string
}

func (m *micFlag) String() string {
	if m == nil {
		return ""
	}
	return m.value
}

func (m *micFlag) Set(v string) error {
	mic, err := ParseMicrophone(v)
	if err != nil {
		return err
	}
	m.value = v
	m.fv.record("microphone", func(c *Config) { c.Microphone = mic })
	return nil
}

// BindFlags registers all config override flags and returns the FlagValues
// that collects them.
func BindFlags(fs *flag.FlagSet) *FlagValues {
	fv := &FlagValues{}
	str := func(name, usage string, assign func(*Config, string)) {
		fs.Var(&stringFlag{fv: fv, name: name, assign: assign}, name, usage)
	}
	num := func(name, usage string, assign func(*Config, int)) {
		fs.Var(&intFlag{fv: fv, name: name, assign: assign}, name, usage)
	}
	boolean := func(name, usage string, assign func(*Config, bool)) {
		fs.Var(&boolFlag{fv: fv, name: name, assign: assign}, name, usage)
	}

	str("hotkey", "push-to-talk key (alt, alt_l, ctrl_r, caps_lock, f1..f12, or a combo like ctrl+shift+space)", func(c *Config, v string) { c.Hotkey = v })
	str("hotkey-mode", "hotkey strategy: auto, hook, poll, combo", func(c *Config, v string) { c.HotkeyMode = v })
	num("poll-interval-ms", "poll interval for -hotkey-mode poll", func(c *Config, v int) { c.PollIntervalMs = v })
	str("model", "model size (tiny, base, small, medium, large-v3)", func(c *Config, v string) { c.Model = v })
	fs.Var(&micFlag{fv: fv}, "microphone", "input device index or default")
	str("language", "language code or auto", func(c *Config, v string) { c.Language = v })

	str("engine", "inference engine: local, remote, openai", func(c *Config, v string) { c.Engine = v })
	str("models-dir", "directory holding local models", func(c *Config, v string) { c.ModelsDir = v })
	str("vad-model", "silero VAD model path", func(c *Config, v string) { c.VADModel = v })
	num("threads", "inference threads", func(c *Config, v int) { c.Threads = v })

	str("api-endpoint", "remote transcription endpoint URL", func(c *Config, v string) { c.APIEndpoint = v })
	str("api-token", "authorization token", func(c *Config, v string) { c.APIToken = v })
	str("api-model", "remote model name", func(c *Config, v string) { c.APIModel = v })
	str("text-path", "JSON path to extract text from remote responses", func(c *Config, v string) { c.TextPath = v })
	str("codec", "upload codec for the remote engine (pcm, opus, flac, mp3)", func(c *Config, v string) { c.Codec = v })
	str("container", "upload container for the remote engine (wav, ogg, flac, mp3)", func(c *Config, v string) { c.Container = v })
	num("request-timeout", "request timeout seconds", func(c *Config, v int) { c.RequestTimeout = v })
	num("max-retry", "max retry attempts", func(c *Config, v int) { c.MaxRetry = v })
	fs.Var(&floatFlag{fv: fv, name: "retry-base-delay", assign: func(c *Config, v float64) { c.RetryBaseDelay = v }},
		"retry-base-delay", "retry base delay seconds (float)")
	boolean("enable-http2", "enable HTTP/2 (true/false)", func(c *Config, v bool) { c.EnableHTTP2 = v })
	boolean("verify-ssl", "verify TLS certificates (true/false)", func(c *Config, v bool) { c.VerifySSL = v })

	num("min-duration-ms", "recordings shorter than this are discarded", func(c *Config, v int) { c.MinDurationMs = v })
	num("max-duration-s", "longest recording kept in memory", func(c *Config, v int) { c.MaxDurationS = v })
	num("paste-delay-ms", "delay between clipboard write and paste keystroke", func(c *Config, v int) { c.PasteDelayMs = v })
	str("paste-backend", "paste keystroke backend: auto, keybd, robotgo", func(c *Config, v string) { c.PasteBackend = v })
	boolean("restore-clipboard", "restore previous clipboard text after pasting (true/false)", func(c *Config, v bool) { c.RestoreClipboard = v })

	boolean("cue", "beep on start/stop (true/false)", func(c *Config, v bool) { c.Cue = v })
	boolean("notification", "enable notifications (true/false)", func(c *Config, v bool) { c.Notification = v })
	boolean("tray", "show a tray icon (true/false)", func(c *Config, v bool) { c.Tray = v })
	str("cache-dir", "cache directory", func(c *Config, v string) { c.CacheDir = v })
	boolean("keep-cache", "keep recordings and transcripts (true/false)", func(c *Config, v bool) { c.KeepCache = v })

	str("metrics-addr", "serve Prometheus metrics on this address", func(c *Config, v string) { c.MetricsAddr = v })
	str("log-level", "log level: debug, info, warn, error", func(c *Config, v string) { c.LogLevel = v })
	str("log-dir", "log directory", func(c *Config, v string) { c.LogDir = v })
	num("shutdown-timeout-s", "seconds to wait for a running transcription on quit", func(c *Config, v int) { c.ShutdownTimeoutS = v })

	return fv
}

// ApplyFlags applies present flags to the config in the order they were given.
func ApplyFlags(cfg *Config, fv *FlagValues) {
	if fv == nil {
		return
	}
	for _, name := range fv.order {
		fv.apply[name](cfg)
	}
}

// AnySet reports whether any flag was explicitly set by the user.
func (fv *FlagValues) AnySet() bool {
	return fv != nil && len(fv.order) > 0
}

// Names returns the explicitly set flag names.
func (fv *FlagValues) Names() []string {
	if fv == nil {
		return nil
	}
	return append([]string(nil), fv.order...)
}
