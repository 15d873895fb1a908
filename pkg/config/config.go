package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"fedora-updater/pkg/backend"
	"fedora-updater/pkg/log"
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/system"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given. It may be absent.
const DefaultPath = "/etc/fedora-updater.yaml"

type Config struct {
	// Elevation prefixes privileged commands. Empty runs them directly.
	Elevation   string        `yaml:"elevation"`
	Timeout     time.Duration `yaml:"timeout"`
	DefaultMode string        `yaml:"default-mode"`
	Backends    Backends      `yaml:"backends"`
}

type Backends struct {
	Flatpak BackendConfig `yaml:"flatpak"`
	DNF5    BackendConfig `yaml:"dnf5"`
}

type BackendConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
	// Refresh forces a metadata refresh before checking. DNF5 only.
	Refresh bool `yaml:"refresh,omitempty"`
}

// Default is the configuration used when no file exists.
func Default() Config {
	return Config{
		Elevation:   "sudo",
		DefaultMode: string(model.ModeImmediate),
		Backends: Backends{
			Flatpak: BackendConfig{Enabled: true, Binary: "flatpak"},
			DNF5:    BackendConfig{Enabled: true, Binary: "dnf5", Refresh: true},
		},
	}
}

// LoadConfig reads filename on top of the defaults. A missing file is only an
// error when the user named it explicitly.
func LoadConfig(filename string, explicit bool, logger log.Logger) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(system.AppFs, filename)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No config file found, using defaults", "path", filename)
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	logger.Debug("Loaded config", "path", filename, "elevation", cfg.Elevation, "timeout", cfg.Timeout, "defaultMode", cfg.DefaultMode)
	return &cfg, nil
}

func (c *Config) Validate() model.ValidationErrors {
	var errs model.ValidationErrors

	if strings.ContainsAny(c.Elevation, " \t") {
		errs = append(errs, model.ValidationError{Field: "elevation", Message: "must be a single executable name without arguments"})
	}
	if c.Timeout < 0 {
		errs = append(errs, model.ValidationError{Field: "timeout", Message: "must not be negative"})
	}
	if _, err := model.ParseMode(c.DefaultMode); err != nil {
		errs = append(errs, model.ValidationError{Field: "default-mode", Message: err.Error()})
	}

	backends := []struct {
		name string
		cfg  BackendConfig
	}{
		{"flatpak", c.Backends.Flatpak},
		{"dnf5", c.Backends.DNF5},
	}
	for _, b := range backends {
		if b.cfg.Enabled && strings.TrimSpace(b.cfg.Binary) == "" {
			errs = append(errs, model.ValidationError{Field: fmt.Sprintf("backends.%s.binary", b.name), Message: "binary cannot be empty for an enabled backend"})
		}
	}

	return errs
}

// Mode returns the validated default mode.
func (c *Config) Mode() model.Mode {
	mode, err := model.ParseMode(c.DefaultMode)
	if err != nil {
		return model.ModeImmediate
	}
	return mode
}

// EnabledBackends returns the enabled backends in run order: Flatpak, then DNF5.
func (c *Config) EnabledBackends() []backend.Backend {
	var backends []backend.Backend
	if c.Backends.Flatpak.Enabled {
		backends = append(backends, backend.Flatpak(c.Backends.Flatpak.Binary))
	}
	if c.Backends.DNF5.Enabled {
		backends = append(backends, backend.DNF5(c.Backends.DNF5.Binary, c.Elevation, c.Backends.DNF5.Refresh))
	}
	return backends
}
