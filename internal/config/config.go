// Package config loads and holds process configuration.
// Settings come from ~/.piiguard/config.yaml, overridden by PIIGUARD_*
// environment variables. A .env file next to the working directory is
// honored when present (loaded by the CLI before config is read).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultBackend   = "spacy"
	defaultThreshold = 0.5
	defaultAuditLog  = "~/.piiguard/audit.log"
	defaultModelsDir = "~/.piiguard/models"
)

// DefaultEntities is the entity set used when a request does not name one.
// Mirrors the shipped product defaults for Swiss/German text.
var DefaultEntities = []string{
	"PERSON",
	"EMAIL_ADDRESS",
	"PHONE_NUMBER",
	"LOCATION",
	"DATE_TIME",
	"IBAN_CODE",
	"CH_AHV",
	"CH_PHONE",
	"CH_POSTAL_CODE",
	"CH_IBAN",
}

// Config holds the full piiguard configuration.
type Config struct {
	LogLevel        string   `yaml:"log_level"`
	Backend         string   `yaml:"backend"`
	ModelsRoot      string   `yaml:"models_root"`
	AuditLog        string   `yaml:"audit_log"`
	ScoreThreshold  float64  `yaml:"score_threshold"`
	DefaultEntities []string `yaml:"default_entities"`
	// NEREnabled toggles the model-backed recognizer. With it off,
	// analyzers run pattern recognizers only and no model is loaded.
	NEREnabled bool `yaml:"ner_enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:        "info",
		Backend:         defaultBackend,
		ModelsRoot:      defaultModelsDir,
		AuditLog:        defaultAuditLog,
		ScoreThreshold:  defaultThreshold,
		DefaultEntities: append([]string(nil), DefaultEntities...),
		NEREnabled:      true,
	}
}

// ConfigPath returns the per-user config file location.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".piiguard", "config.yaml"), nil
}

// EnsureConfigDir creates the directory holding the given config path.
func EnsureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Load reads the config file at path, applies env overrides, and expands
// home-relative paths. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Backend == "" {
		cfg.Backend = defaultBackend
	}
	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > 1 {
		return Config{}, fmt.Errorf("score_threshold %v outside [0,1]", cfg.ScoreThreshold)
	}
	if len(cfg.DefaultEntities) == 0 {
		cfg.DefaultEntities = append([]string(nil), DefaultEntities...)
	}
	cfg.ModelsRoot = expandHome(cfg.ModelsRoot)
	cfg.AuditLog = expandHome(cfg.AuditLog)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PIIGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PIIGUARD_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("PIIGUARD_MODELS_ROOT"); v != "" {
		cfg.ModelsRoot = v
	}
	if v := os.Getenv("PIIGUARD_AUDIT_LOG"); v != "" {
		cfg.AuditLog = v
	}
	if v := os.Getenv("PIIGUARD_SCORE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ScoreThreshold = f
		}
	}
	if v := os.Getenv("PIIGUARD_NER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NEREnabled = b
		}
	}
	if v := os.Getenv("PIIGUARD_DEFAULT_ENTITIES"); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			cfg.DefaultEntities = out
		}
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
