/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"pysketch/internal/domain"
	applog "pysketch/internal/log"
	"pysketch/internal/simplify"
	"pysketch/internal/turtle"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type CanvasConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// CompileConfig uses pointers where zero is a meaningful value (speed 0 is
// "instant", tolerance 0 keeps every point); nil means "not set".
type CompileConfig struct {
	Speed             *int     `yaml:"speed,omitempty"`
	BackgroundColor   string   `yaml:"background_color"`
	SimplifyTolerance *float64 `yaml:"simplify_tolerance,omitempty"`
	OutputName        string   `yaml:"output_name"`
}

type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Compile       CompileConfig `yaml:"compile"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	tol := simplify.DefaultTolerance
	speed := domain.DefaultSpeed
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 800, Height: 600},
		Compile: CompileConfig{
			Speed:             &speed,
			BackgroundColor:   domain.DefaultBackground,
			SimplifyTolerance: &tol,
			OutputName:        "drawing.py",
		},
		Backend: BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "PYSKETCH_CONFIG"
	EnvCanvasWidth      = "PYSKETCH_CANVAS_WIDTH"
	EnvCanvasHeight     = "PYSKETCH_CANVAS_HEIGHT"
	EnvSpeed            = "PYSKETCH_SPEED"
	EnvBackground       = "PYSKETCH_BG"
	EnvTolerance        = "PYSKETCH_TOLERANCE"
	EnvBackendURL       = "PYSKETCH_BACKEND_URL"
	EnvBackendTimeoutMs = "PYSKETCH_BACKEND_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PYSKETCH_LOG_LEVEL"
	EnvLogFormat = "PYSKETCH_LOG_FORMAT"
	EnvLogSource = "PYSKETCH_LOG_SOURCE"
	EnvLogFile   = "PYSKETCH_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "PySketch"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

// SetTokenStore swaps the keyring backend and returns a func restoring the
// previous one.
func SetTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. PYSKETCH_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PySketch")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PySketch")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "pysketch")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "pysketch")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
// A malformed file is reported in the log and otherwise ignored.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			applog.WithComponent("config").Warn("ignoring malformed config file", slog.String("path", path), slog.Any("err", err))
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// StoreToken persists the backend token without touching the config file.
func StoreToken(token string) error {
	return tokenStore.Set(keyringService, keyringToken, token)
}

// ClearToken removes the stored backend token.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if src.Compile.Speed != nil {
		v := domain.ClampSpeed(*src.Compile.Speed)
		dst.Compile.Speed = &v
	}
	if strings.TrimSpace(src.Compile.BackgroundColor) != "" {
		dst.Compile.BackgroundColor = strings.TrimSpace(src.Compile.BackgroundColor)
	}
	if src.Compile.SimplifyTolerance != nil {
		v := *src.Compile.SimplifyTolerance
		dst.Compile.SimplifyTolerance = &v
	}
	if strings.TrimSpace(src.Compile.OutputName) != "" {
		dst.Compile.OutputName = strings.TrimSpace(src.Compile.OutputName)
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCanvasWidth)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Width = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasHeight)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Height = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSpeed)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			n = domain.ClampSpeed(n)
			cfg.Compile.Speed = &n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackground)); v != "" {
		cfg.Compile.BackgroundColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTolerance)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Compile.SimplifyTolerance = &f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"canvas.width":               EnvCanvasWidth,
	"canvas.height":              EnvCanvasHeight,
	"compile.speed":              EnvSpeed,
	"compile.background_color":   EnvBackground,
	"compile.simplify_tolerance": EnvTolerance,
	"backend.base_url":           EnvBackendURL,
	"backend.timeout_ms":         EnvBackendTimeoutMs,
	"logging.level":              EnvLogLevel,
	"logging.format":             EnvLogFormat,
	"logging.source":             EnvLogSource,
	"logging.file":               EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// SpeedValue returns the configured turtle speed clamped to [0,10].
func (c CompileConfig) SpeedValue() int {
	if c.Speed == nil {
		return domain.DefaultSpeed
	}
	return domain.ClampSpeed(*c.Speed)
}

// Tolerance returns the configured simplification tolerance, falling back
// to the default for unset, negative or NaN values.
func (c CompileConfig) Tolerance() float64 {
	if c.SimplifyTolerance == nil {
		return simplify.DefaultTolerance
	}
	v := *c.SimplifyTolerance
	if math.IsNaN(v) || v < 0 {
		return simplify.DefaultTolerance
	}
	return v
}

// CompileOptions maps the configuration onto compiler options.
// Project settings still override speed and background via Options.ForProject.
func (c AppConfig) CompileOptions() turtle.Options {
	o := turtle.DefaultOptions()
	if c.Canvas.Width > 0 {
		o.CanvasWidth = c.Canvas.Width
	}
	if c.Canvas.Height > 0 {
		o.CanvasHeight = c.Canvas.Height
	}
	o.Speed = c.Compile.SpeedValue()
	if c.Compile.BackgroundColor != "" {
		o.BackgroundColor = c.Compile.BackgroundColor
	}
	return o.WithTolerance(c.Compile.Tolerance())
}

// LogOptions converts the logging section for log.Init.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// Timeout returns the backend request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}
