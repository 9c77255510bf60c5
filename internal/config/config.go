// Package config loads and saves azcost settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all azcost configuration.
type Config struct {
	General         GeneralConfig        `toml:"general" yaml:"general" json:"general"`
	Columns         ColumnsConfig        `toml:"columns" yaml:"columns" json:"columns"`
	Budget          BudgetConfig         `toml:"budget" yaml:"budget" json:"budget"`
	Recommendations RecommendationConfig `toml:"recommendations" yaml:"recommendations" json:"recommendations"`
	Server          ServerConfig         `toml:"server" yaml:"server" json:"server"`
	Appearance      AppearanceConfig     `toml:"appearance" yaml:"appearance" json:"appearance"`
	Logging         LoggingConfig        `toml:"logging" yaml:"logging" json:"logging"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Currency    string `toml:"currency" yaml:"currency" json:"currency"`
	TopN        int    `toml:"top_n" yaml:"top_n" json:"top_n"`
	DefaultFile string `toml:"default_file,omitempty" yaml:"default_file,omitempty" json:"default_file,omitempty"`
}

// ColumnsConfig adds header names recognized for each dashboard field,
// for exports whose columns Azure's defaults do not cover.
type ColumnsConfig struct {
	Date          []string `toml:"date,omitempty" yaml:"date,omitempty" json:"date,omitempty"`
	Service       []string `toml:"service,omitempty" yaml:"service,omitempty" json:"service,omitempty"`
	ResourceGroup []string `toml:"resource_group,omitempty" yaml:"resource_group,omitempty" json:"resource_group,omitempty"`
	Cost          []string `toml:"cost,omitempty" yaml:"cost,omitempty" json:"cost,omitempty"`
}

// BudgetConfig holds an optional monthly spend ceiling.
type BudgetConfig struct {
	Monthly *float64 `toml:"monthly,omitempty" yaml:"monthly,omitempty" json:"monthly,omitempty"`
}

// RecommendationConfig holds the thresholds for optimization hints.
type RecommendationConfig struct {
	ServiceShareWarn float64  `toml:"service_share_warn" yaml:"service_share_warn" json:"service_share_warn"`
	GroupShareWarn   float64  `toml:"group_share_warn" yaml:"group_share_warn" json:"group_share_warn"`
	SpikeFactor      float64  `toml:"spike_factor" yaml:"spike_factor" json:"spike_factor"`
	SpikeMinDays     int      `toml:"spike_min_days" yaml:"spike_min_days" json:"spike_min_days"`
	MaxSpikes        int      `toml:"max_spikes" yaml:"max_spikes" json:"max_spikes"`
	TrendWarn        float64  `toml:"trend_warn" yaml:"trend_warn" json:"trend_warn"`
	Disabled         []string `toml:"disabled,omitempty" yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// ServerConfig holds settings for the browser dashboard server.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr" json:"addr"`
	MaxUploadMB    int      `toml:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	EventsBuffer   int      `toml:"events_buffer" yaml:"events_buffer" json:"events_buffer"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" yaml:"theme" json:"theme"`
}

// LoggingConfig holds diagnostic log settings.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "USD",
			TopN:     10,
		},
		Recommendations: DefaultRecommendations(),
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			MaxUploadMB:  50,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultRecommendations returns the built-in recommendation thresholds.
func DefaultRecommendations() RecommendationConfig {
	return RecommendationConfig{
		ServiceShareWarn: 0.5,
		GroupShareWarn:   0.4,
		SpikeFactor:      1.5,
		SpikeMinDays:     3,
		MaxSpikes:        5,
		TrendWarn:        0.2,
	}
}

// RuleEnabled reports whether the named recommendation rule is active.
func (r RecommendationConfig) RuleEnabled(rule string) bool {
	for _, d := range r.Disabled {
		if strings.EqualFold(d, rule) {
			return false
		}
	}
	return true
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "azcost")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "azcost")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the default config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg, err := LoadFile(ConfigPath())
	if err != nil && os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile reads a TOML, YAML or JSON config file chosen by extension.
// Keys absent from the file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		return cfg, err
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", "":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would make the dashboard misbehave.
func (c Config) Validate() error {
	r := c.Recommendations
	if r.ServiceShareWarn < 0 || r.ServiceShareWarn > 1 {
		return fmt.Errorf("recommendations.service_share_warn must be between 0 and 1, got %v", r.ServiceShareWarn)
	}
	if r.GroupShareWarn < 0 || r.GroupShareWarn > 1 {
		return fmt.Errorf("recommendations.group_share_warn must be between 0 and 1, got %v", r.GroupShareWarn)
	}
	if r.SpikeFactor < 1 {
		return fmt.Errorf("recommendations.spike_factor must be at least 1, got %v", r.SpikeFactor)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Budget.Monthly != nil && *c.Budget.Monthly <= 0 {
		return fmt.Errorf("budget.monthly must be positive, got %v", *c.Budget.Monthly)
	}
	return nil
}

// Save writes the config to the default path as TOML.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path as TOML.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
