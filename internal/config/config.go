/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
// The provider API key is never written to the YAML file; it lives in the OS keychain.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

// ProviderConfig describes the generative-AI endpoint and the model used per operation.
type ProviderConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutMs       int    `yaml:"timeout_ms"`
	ImageModel      string `yaml:"image_model"`
	EditModel       string `yaml:"edit_model"`
	VisionModel     string `yaml:"vision_model"`
	VideoModel      string `yaml:"video_model"`
	SpeechModel     string `yaml:"speech_model"`
	SpeechVoice     string `yaml:"speech_voice"`
	ChatModel       string `yaml:"chat_model"`
	ReasoningModel  string `yaml:"reasoning_model"`
	PollIntervalMs  int    `yaml:"poll_interval_ms"`
	PollMaxAttempts int    `yaml:"poll_max_attempts"`
}

type MediaConfig struct {
	CacheDir      string `yaml:"cache_dir"`
	MaxCacheBytes int64  `yaml:"max_cache_bytes"`
	// EvictSchedule is a cron spec for the cache janitor, e.g. "@every 10m".
	EvictSchedule string `yaml:"evict_schedule"`
}

type LessonsConfig struct {
	// CatalogFile optionally replaces the built-in lesson catalog.
	CatalogFile string `yaml:"catalog_file"`
	Watch       bool   `yaml:"watch"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Provider      ProviderConfig `yaml:"provider"`
	Media         MediaConfig    `yaml:"media"`
	Lessons       LessonsConfig  `yaml:"lessons"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Provider: ProviderConfig{
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			TimeoutMs:       120000,
			ImageModel:      "imagen-4.0-generate-001",
			EditModel:       "gemini-2.5-flash-image",
			VisionModel:     "gemini-2.5-flash",
			VideoModel:      "veo-3.0-generate-001",
			SpeechModel:     "gemini-2.5-flash-preview-tts",
			SpeechVoice:     "Kore",
			ChatModel:       "gemini-2.5-flash",
			ReasoningModel:  "gemini-2.5-pro",
			PollIntervalMs:  5000,
			PollMaxAttempts: 120,
		},
		Media:   MediaConfig{CacheDir: "", MaxCacheBytes: 512 * 1024 * 1024, EvictSchedule: "@every 10m"},
		Lessons: LessonsConfig{CatalogFile: "", Watch: true},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvProviderURL     = "CVS_PROVIDER_URL"
	EnvProviderTimeout = "CVS_PROVIDER_TIMEOUT_MS"
	EnvPollIntervalMs  = "CVS_POLL_INTERVAL_MS"
	EnvPollMaxAttempts = "CVS_POLL_MAX_ATTEMPTS"
	EnvAPIKey          = "CVS_API_KEY"
	EnvTelemetryOptIn  = "CVS_TELEMETRY_OPT_IN"
	EnvMediaDir        = "CVS_MEDIA_DIR"
	EnvLessonsFile     = "CVS_LESSONS_FILE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CVS_LOG_LEVEL"
	EnvLogFormat = "CVS_LOG_FORMAT"
	EnvLogSource = "CVS_LOG_SOURCE"
	EnvLogFile   = "CVS_LOG_FILE"
)

// configDirOverride lets tests redirect the config file away from the real user dir.
var configDirOverride string

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if configDirOverride != "" {
		return filepath.Join(configDirOverride, "config.yaml"), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CanvasStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CanvasStudio")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "canvasstudio")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DefaultMediaDir is used when media.cache_dir is empty.
func DefaultMediaDir() string {
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		return filepath.Join(d, "canvasstudio", "media")
	}
	return filepath.Join(os.TempDir(), "canvasstudio-media")
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The provider API key comes from CVS_API_KEY or, failing that, the OS keyring.
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
		}
	}
	applyEnvOverrides(&cfg)
	if strings.TrimSpace(cfg.Media.CacheDir) == "" {
		cfg.Media.CacheDir = DefaultMediaDir()
	}
	key := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if key == "" {
		key, _ = tokenStore.Get(keyringService, keyringAPIKey)
	}
	return cfg, key, nil
}

// Save writes the user config YAML and persists the API key into the OS keyring (if non-empty).
func Save(cfg AppConfig, apiKey string) error {
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
	if apiKey != "" {
		if err := tokenStore.Set(keyringService, keyringAPIKey, apiKey); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn

	p, sp := &dst.Provider, src.Provider
	mergeString(&p.BaseURL, sp.BaseURL)
	mergeString(&p.ImageModel, sp.ImageModel)
	mergeString(&p.EditModel, sp.EditModel)
	mergeString(&p.VisionModel, sp.VisionModel)
	mergeString(&p.VideoModel, sp.VideoModel)
	mergeString(&p.SpeechModel, sp.SpeechModel)
	mergeString(&p.SpeechVoice, sp.SpeechVoice)
	mergeString(&p.ChatModel, sp.ChatModel)
	mergeString(&p.ReasoningModel, sp.ReasoningModel)
	if sp.TimeoutMs > 0 {
		p.TimeoutMs = sp.TimeoutMs
	}
	if sp.PollIntervalMs > 0 {
		p.PollIntervalMs = sp.PollIntervalMs
	}
	if sp.PollMaxAttempts > 0 {
		p.PollMaxAttempts = sp.PollMaxAttempts
	}

	mergeString(&dst.Media.CacheDir, src.Media.CacheDir)
	if src.Media.MaxCacheBytes > 0 {
		dst.Media.MaxCacheBytes = src.Media.MaxCacheBytes
	}
	mergeString(&dst.Media.EvictSchedule, src.Media.EvictSchedule)
	mergeString(&dst.Lessons.CatalogFile, src.Lessons.CatalogFile)
	dst.Lessons.Watch = src.Lessons.Watch

	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	mergeString(&dst.Logging.File, src.Logging.File)
}

func mergeString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvProviderURL)); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProviderTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPollIntervalMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Provider.PollIntervalMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPollMaxAttempts)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Provider.PollMaxAttempts = n
		}
	}
	if v := os.Getenv(EnvTelemetryOptIn); strings.TrimSpace(v) != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMediaDir)); v != "" {
		cfg.Media.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLessonsFile)); v != "" {
		cfg.Lessons.CatalogFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogSource); strings.TrimSpace(v) != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"provider.base_url":          EnvProviderURL,
	"provider.timeout_ms":        EnvProviderTimeout,
	"provider.poll_interval_ms":  EnvPollIntervalMs,
	"provider.poll_max_attempts": EnvPollMaxAttempts,
	"provider.api_key":           EnvAPIKey,
	"general.telemetry_opt_in":   EnvTelemetryOptIn,
	"media.cache_dir":            EnvMediaDir,
	"lessons.catalog_file":       EnvLessonsFile,
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

// Timeout returns the provider request timeout, falling back to the default.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return time.Duration(Defaults().Provider.TimeoutMs) * time.Millisecond
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// PollInterval returns the long-running operation poll interval.
func (p ProviderConfig) PollInterval() time.Duration {
	if p.PollIntervalMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}
