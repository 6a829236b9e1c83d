package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"proxen/internal/gateway"
	"proxen/internal/prompt"
)

// Settings are the tunables read from config.yaml.
type Settings struct {
	Model          string         `yaml:"model"`
	BaseURL        string         `yaml:"base_url"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	HistoryWindow  int            `yaml:"history_window"`
	Mirror         MirrorSettings `yaml:"mirror"`
}

// MirrorSettings controls replaying task changes onto Google Tasks.
type MirrorSettings struct {
	Enabled bool   `yaml:"enabled"`
	List    string `yaml:"list"` // empty means the default list
}

// DefaultSettings returns the settings used when config.yaml is absent.
func DefaultSettings() Settings {
	return Settings{
		Model:          gateway.DefaultModel,
		BaseURL:        gateway.DefaultBaseURL,
		RequestTimeout: gateway.DefaultTimeout,
		HistoryWindow:  prompt.DefaultHistoryWindow,
	}
}

// LoadSettings reads config.yaml over the defaults. A missing file is not an error.
func (c *Config) LoadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	s, err := ParseSettings(data)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	c.Settings = s
	return nil
}

// ParseSettings decodes YAML over DefaultSettings. Unknown keys are rejected;
// non-positive timeouts and windows fall back to the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, err
	}

	def := DefaultSettings()
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.BaseURL == "" {
		s.BaseURL = def.BaseURL
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = def.RequestTimeout
	}
	if s.HistoryWindow <= 0 {
		s.HistoryWindow = def.HistoryWindow
	}
	return s, nil
}
