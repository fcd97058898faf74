// Package config persists the engine's local settings as JSON under the
// data directory. Writes are atomic (temp file + rename) and serialized with
// a file lock so concurrent commands cannot interleave partial configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/d-royes/tasksync/internal/models"
)

const configFile = ".tasksync/config.json"
const lockFile = ".tasksync/config.json.lock"

// DefaultDateToleranceHours bounds how far apart planned dates may sit while
// still counting as the same task during matching.
const DefaultDateToleranceHours = 24

// Config is the on-disk configuration.
type Config struct {
	// Tenant namespaces every stored task and scope lock.
	Tenant string `json:"tenant"`

	// Timezone is the IANA zone naive spreadsheet dates are interpreted in.
	// Empty means the system local zone.
	Timezone string `json:"timezone,omitempty"`

	// Sheets maps each domain to its spreadsheet ID, optionally suffixed
	// with "/TabName".
	Sheets map[string]string `json:"sheets,omitempty"`

	// VocabPath points at a vocabulary YAML file. Empty means the built-in
	// vocabularies.
	VocabPath string `json:"vocab_path,omitempty"`

	DateToleranceHours int `json:"date_tolerance_hours,omitempty"`
}

// Load reads the config from disk. A missing file yields an empty config.
func Load(baseDir string) (*Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(baseDir string, cfg *Config) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, configPath)
}

// Update applies fn to the current config and saves the result, holding the
// config lock across the read-modify-write.
func Update(baseDir string, fn func(*Config) error) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		if err := fn(cfg); err != nil {
			return err
		}
		return Save(baseDir, cfg)
	})
}

// withConfigLock serializes access to config.json using flock
func withConfigLock(baseDir string, fn func() error) error {
	lockPath := filepath.Join(baseDir, lockFile)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

// Location resolves the configured timezone, falling back to the system
// local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SheetFor returns the spreadsheet ID configured for a domain.
func (c *Config) SheetFor(domain models.Domain) (string, bool) {
	id, ok := c.Sheets[string(domain)]
	return id, ok && id != ""
}

// SheetIDs returns the per-domain sheet map keyed by domain type, for
// handing to the engine.
func (c *Config) SheetIDs() map[models.Domain]string {
	out := make(map[models.Domain]string, len(c.Sheets))
	for name, id := range c.Sheets {
		if models.IsValidDomain(models.Domain(name)) && id != "" {
			out[models.Domain(name)] = id
		}
	}
	return out
}

// DateTolerance returns the matching tolerance as a duration.
func (c *Config) DateTolerance() time.Duration {
	hours := c.DateToleranceHours
	if hours <= 0 {
		hours = DefaultDateToleranceHours
	}
	return time.Duration(hours) * time.Hour
}
