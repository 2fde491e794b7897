package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coleski/win-voice/internal/hotkey/keys"
)

// SampleRate is the capture and inference sample rate in Hz.
const SampleRate = 16000

// Config holds the persisted settings.
type Config struct {
	Hotkey         string `json:"hotkey" yaml:"hotkey"`
	HotkeyMode     string `json:"hotkey_mode" yaml:"hotkey_mode"`
	PollIntervalMs int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	Model          string `json:"model" yaml:"model"`
	Microphone     *int   `json:"microphone" yaml:"microphone"`
	Language       string `json:"language" yaml:"language"`

	Engine    string `json:"engine" yaml:"engine"`
	ModelsDir string `json:"models_dir" yaml:"models_dir"`
	VADModel  string `json:"vad_model" yaml:"vad_model"`
	Threads   int    `json:"threads" yaml:"threads"`

	APIEndpoint    string  `json:"api_endpoint" yaml:"api_endpoint"`
	APIToken       string  `json:"api_token" yaml:"api_token"`
	APIModel       string  `json:"api_model" yaml:"api_model"`
	TextPath       string  `json:"text_path" yaml:"text_path"`
	Codec          string  `json:"codec" yaml:"codec"`
	Container      string  `json:"container" yaml:"container"`
	RequestTimeout int     `json:"request_timeout" yaml:"request_timeout"`
	MaxRetry       int     `json:"max_retry" yaml:"max_retry"`
	RetryBaseDelay float64 `json:"retry_base_delay" yaml:"retry_base_delay"`
	EnableHTTP2    bool    `json:"enable_http2" yaml:"enable_http2"`
	VerifySSL      bool    `json:"verify_ssl" yaml:"verify_ssl"`

	MinDurationMs    int    `json:"min_duration_ms" yaml:"min_duration_ms"`
	MaxDurationS     int    `json:"max_duration_s" yaml:"max_duration_s"`
	PasteDelayMs     int    `json:"paste_delay_ms" yaml:"paste_delay_ms"`
	PasteBackend     string `json:"paste_backend" yaml:"paste_backend"`
	RestoreClipboard bool   `json:"restore_clipboard" yaml:"restore_clipboard"`

	Cue          bool   `json:"cue" yaml:"cue"`
	Notification bool   `json:"notification" yaml:"notification"`
	Tray         bool   `json:"tray" yaml:"tray"`
	CacheDir     string `json:"cache_dir" yaml:"cache_dir"`
	KeepCache    bool   `json:"keep_cache" yaml:"keep_cache"`

	MetricsAddr      string `json:"metrics_addr" yaml:"metrics_addr"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
	LogDir           string `json:"log_dir" yaml:"log_dir"`
	ShutdownTimeoutS int    `json:"shutdown_timeout_s" yaml:"shutdown_timeout_s"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Hotkey:           "alt",
		HotkeyMode:       "auto",
		PollIntervalMs:   10,
		Model:            "tiny",
		Microphone:       nil,
		Language:         "en",
		Engine:           "local",
		ModelsDir:        "models",
		VADModel:         "",
		Threads:          2,
		APIEndpoint:      "",
		APIToken:         "",
		APIModel:         "",
		TextPath:         "text",
		Codec:            "pcm",
		Container:        "wav",
		RequestTimeout:   30,
		MaxRetry:         3,
		RetryBaseDelay:   0.5,
		EnableHTTP2:      true,
		VerifySSL:        true,
		MinDurationMs:    100,
		MaxDurationS:     300,
		PasteDelayMs:     50,
		PasteBackend:     "auto",
		RestoreClipboard: false,
		Cue:              true,
		Notification:     false,
		Tray:             true,
		CacheDir:         "",
		KeepCache:        false,
		MetricsAddr:      "",
		LogLevel:         "info",
		LogDir:           "",
		ShutdownTimeoutS: 10,
	}
}

// DefaultPath returns config.json next to the executable, or in the working
// directory when the executable path is unknown.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(exe), "config.json")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the config file at path on top of the defaults. A missing file
// returns the defaults and an error matching os.ErrNotExist; a malformed file
// returns the defaults and the parse error. The returned Config is always usable.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(b, &cfg)
	} else {
		err = json.NewDecoder(bytes.NewReader(b)).Decode(&cfg)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as JSON, or YAML for .yaml/.yml paths.
func Save(path string, cfg Config) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(cfg)
	} else {
		b, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0644)
}

// SaveDefault writes a default config to the provided path.
func SaveDefault(path string) error {
	return Save(path, DefaultConfig())
}

// IsNotExist reports whether err from Load means the file was missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// EnvLookup returns a lookup over the process environment, falling back to
// the values in dotenvPath when that file exists.
func EnvLookup(dotenvPath string) func(string) (string, bool) {
	var file map[string]string
	if dotenvPath != "" {
		if m, err := godotenv.Read(dotenvPath); err == nil {
			file = m
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

// ApplyEnv overrides cfg with WINVOICE_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("WINVOICE_HOTKEY"); ok {
		cfg.Hotkey = v
	}
	if v, ok := get("WINVOICE_MODEL"); ok {
		cfg.Model = v
	}
	if v, ok := get("WINVOICE_LANGUAGE"); ok {
		cfg.Language = v
	}
	if v, ok := get("WINVOICE_ENGINE"); ok {
		cfg.Engine = v
	}
	if v, ok := get("WINVOICE_API_TOKEN"); ok {
		cfg.APIToken = v
	}
	if v, ok := get("WINVOICE_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := get("WINVOICE_MICROPHONE"); ok {
		mic, err := ParseMicrophone(v)
		if err != nil {
			return fmt.Errorf("WINVOICE_MICROPHONE: %w", err)
		}
		cfg.Microphone = mic
	}
	return nil
}

// ParseMicrophone accepts a device index or "default".
func ParseMicrophone(s string) (*int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "default" || s == "null" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid microphone %q (want device index or default)", s)
	}
	return &n, nil
}

var (
	allowedEngines  = map[string]bool{"local": true, "remote": true, "openai": true}
	allowedModes    = map[string]bool{"auto": true, "hook": true, "poll": true, "combo": true}
	allowedBackends = map[string]bool{"auto": true, "keybd": true, "robotgo": true}
	allowedModels   = map[string]bool{
		"tiny": true, "tiny.en": true, "base": true, "base.en": true,
		"small": true, "small.en": true, "medium": true, "medium.en": true,
		"large-v1": true, "large-v2": true, "large-v3": true, "turbo": true,
		"distil-small.en": true, "distil-medium.en": true,
	}
)

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	if errs := check(cfg); len(errs) > 0 {
		return errs[0].err
	}
	return nil
}

// Sanitize replaces invalid values with their defaults and returns one
// warning per replaced field.
func Sanitize(cfg *Config) []error {
	def := DefaultConfig()
	var warnings []error
	for _, e := range check(cfg) {
		e.reset(cfg, &def)
		warnings = append(warnings, fmt.Errorf("%w; using default", e.err))
	}
	return warnings
}

type fieldError struct {
	err   error
	reset func(cfg, def *Config)
}

func check(cfg *Config) []fieldError {
	var errs []fieldError
	add := func(reset func(cfg, def *Config), format string, args ...any) {
		errs = append(errs, fieldError{err: fmt.Errorf(format, args...), reset: reset})
	}

	if err := keys.Validate(cfg.Hotkey); err != nil {
		add(func(c, d *Config) { c.Hotkey = d.Hotkey }, "invalid hotkey: %w", err)
	}
	if !allowedModes[strings.ToLower(cfg.HotkeyMode)] {
		add(func(c, d *Config) { c.HotkeyMode = d.HotkeyMode }, "invalid hotkey_mode: %q (allowed: auto, hook, poll, combo)", cfg.HotkeyMode)
	}
	if cfg.PollIntervalMs <= 0 {
		add(func(c, d *Config) { c.PollIntervalMs = d.PollIntervalMs }, "invalid poll_interval_ms: %d (must be > 0)", cfg.PollIntervalMs)
	}
	if !allowedEngines[strings.ToLower(cfg.Engine)] {
		add(func(c, d *Config) { c.Engine = d.Engine }, "invalid engine: %q (allowed: local, remote, openai)", cfg.Engine)
	}
	if strings.EqualFold(cfg.Engine, "local") && !allowedModels[strings.ToLower(cfg.Model)] {
		add(func(c, d *Config) { c.Model = d.Model }, "invalid model: %q", cfg.Model)
	}
	if cfg.Microphone != nil && *cfg.Microphone < 0 {
		add(func(c, d *Config) { c.Microphone = d.Microphone }, "invalid microphone: %d", *cfg.Microphone)
	}
	if strings.TrimSpace(cfg.Language) == "" {
		add(func(c, d *Config) { c.Language = d.Language }, "invalid language: empty (use an ISO code or auto)")
	}
	if cfg.Threads <= 0 {
		add(func(c, d *Config) { c.Threads = d.Threads }, "invalid threads: %d (must be > 0)", cfg.Threads)
	}
	if cfg.RequestTimeout <= 0 {
		add(func(c, d *Config) { c.RequestTimeout = d.RequestTimeout }, "invalid request_timeout: %d (must be > 0)", cfg.RequestTimeout)
	}
	if cfg.MaxRetry < 1 {
		add(func(c, d *Config) { c.MaxRetry = d.MaxRetry }, "invalid max_retry: %d (must be >= 1)", cfg.MaxRetry)
	}
	if cfg.RetryBaseDelay < 0 {
		add(func(c, d *Config) { c.RetryBaseDelay = d.RetryBaseDelay }, "invalid retry_base_delay: %v (must be >= 0)", cfg.RetryBaseDelay)
	}
	if cfg.MinDurationMs < 0 {
		add(func(c, d *Config) { c.MinDurationMs = d.MinDurationMs }, "invalid min_duration_ms: %d (must be >= 0)", cfg.MinDurationMs)
	}
	if cfg.MaxDurationS <= 0 {
		add(func(c, d *Config) { c.MaxDurationS = d.MaxDurationS }, "invalid max_duration_s: %d (must be > 0)", cfg.MaxDurationS)
	}
	if cfg.PasteDelayMs < 0 {
		add(func(c, d *Config) { c.PasteDelayMs = d.PasteDelayMs }, "invalid paste_delay_ms: %d (must be >= 0)", cfg.PasteDelayMs)
	}
	if !allowedBackends[strings.ToLower(cfg.PasteBackend)] {
		add(func(c, d *Config) { c.PasteBackend = d.PasteBackend }, "invalid paste_backend: %q (allowed: auto, keybd, robotgo)", cfg.PasteBackend)
	}
	if cfg.ShutdownTimeoutS <= 0 {
		add(func(c, d *Config) { c.ShutdownTimeoutS = d.ShutdownTimeoutS }, "invalid shutdown_timeout_s: %d (must be > 0)", cfg.ShutdownTimeoutS)
	}
	return errs
}

// MinSamples is the smallest recording, in samples, that is transcribed.
func (c Config) MinSamples() int {
	return SampleRate * c.MinDurationMs / 1000
}

// MaxSamples caps the capture buffer.
func (c Config) MaxSamples() int {
	return SampleRate * c.MaxDurationS
}

func (c Config) PasteDelay() time.Duration {
	return time.Duration(c.PasteDelayMs) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

// LanguageHint returns the language for the engine; empty means auto-detect.
func (c Config) LanguageHint() string {
	l := strings.TrimSpace(strings.ToLower(c.Language))
	if l == "auto" {
		return ""
	}
	return l
}

// InitCacheDir validates/creates the configured cache directory.
// It mutates cfg.CacheDir to an absolute path or clears it on failure and
// returns the reason it was cleared.
func InitCacheDir(cfg *Config) error {
	if cfg.CacheDir == "" {
		return nil
	}
	abs, err := filepath.Abs(cfg.CacheDir)
	if err != nil {
		cfg.CacheDir = ""
		return fmt.Errorf("cache_dir path invalid: %w", err)
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		cfg.CacheDir = ""
		return fmt.Errorf("cache_dir %q exists but is not a directory", abs)
	}
	if err != nil && !os.IsNotExist(err) {
		cfg.CacheDir = ""
		return fmt.Errorf("cannot access cache_dir %q: %w", abs, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		cfg.CacheDir = ""
		return fmt.Errorf("cannot create cache_dir %q: %w", abs, err)
	}
	cfg.CacheDir = abs
	return nil
}

// TempDir returns the directory to use for temporary files.
func TempDir(cfg *Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return os.TempDir()
}
