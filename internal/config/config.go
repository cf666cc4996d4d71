// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/benchmark"
	"github.com/jeranaias/meshbench/internal/util"
)

// LocalFileName is the project-local config file, checked before the user
// config.
const LocalFileName = "meshbench.toml"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete meshbench configuration.
type Config struct {
	Version string `toml:"version"`

	// Software names the backend under test in reports and file names.
	Software string `toml:"software"`

	Backend BackendConfig `toml:"backend"`
	Suite   SuiteConfig   `toml:"suite"`
	Output  OutputConfig  `toml:"output"`
	History HistoryConfig `toml:"history"`
}

// BackendConfig selects and configures the triangulation backend.
type BackendConfig struct {
	// Kind is "exec" (run an executable) or "replay" (serve a saved mesh).
	Kind string `toml:"kind"`
	// Command is the executable for exec, or the mesh file for replay.
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	TimeoutSecs int      `toml:"timeout_secs"`
	// Env entries ("KEY=value") are added to the backend environment.
	Env []string `toml:"env"`
	Dir string   `toml:"dir"`
}

// SuiteConfig parameterizes the scenario battery.
type SuiteConfig struct {
	TestCase string    `toml:"testcase"`
	CaseMaxH float64   `toml:"case_maxh"`
	Sizes    []float64 `toml:"sizes"`
	Repeats  int       `toml:"repeats"`
	// MinAngle overrides the backend's angle threshold when present.
	MinAngle *float64 `toml:"min_angle,omitempty"`
}

// OutputConfig controls the report files.
type OutputConfig struct {
	Dir           string `toml:"dir"`
	WriteVTU      bool   `toml:"write_vtu"`
	CellQuality   bool   `toml:"cell_quality"`
	WriteMarkdown bool   `toml:"write_markdown"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
	// Path defaults to ~/.meshbench/history.db.
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			Kind:        "exec",
			TimeoutSecs: int(adapter.DefaultTimeout / time.Second),
		},
		Suite: SuiteConfig{
			TestCase: "city.txt",
			CaseMaxH: benchmark.DefaultCaseMaxH,
			Sizes:    benchmark.DefaultSizes(),
			Repeats:  benchmark.DefaultRepeats,
		},
		Output: OutputConfig{
			Dir:           "results",
			WriteVTU:      true,
			CellQuality:   true,
			WriteMarkdown: true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the meshbench configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".meshbench"), nil
}

// ConfigPathTOML returns the path to the user config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SearchPaths returns the config files Load tries, in order.
func SearchPaths() []string {
	paths := []string{LocalFileName}
	if p, err := ConfigPathTOML(); err == nil {
		paths = append(paths, p)
	}
	return paths
}

// HistoryPath returns the configured history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the first config file found in SearchPaths, then applies
// environment overrides and validates. Without a file the defaults are used.
func Load() (*Config, error) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		log.Printf("config: ignoring unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = defaults.Backend.Kind
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Suite.CaseMaxH == 0 {
		cfg.Suite.CaseMaxH = defaults.Suite.CaseMaxH
	}
	if cfg.Suite.Repeats == 0 {
		cfg.Suite.Repeats = defaults.Suite.Repeats
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaults.Output.Dir
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# meshbench configuration file\n")
	buf.WriteString("# Generated by meshbench - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors. The software
// name and backend command are not required here; the run command checks
// them once flags have been applied.
func (c *Config) Validate() error {
	var errs ValidateErrors

	kinds := adapter.Kinds()
	if !contains(kinds, strings.ToLower(c.Backend.Kind)) {
		errs = append(errs, ValidationError{
			Field:   "backend.kind",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(kinds, ", ")),
		})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "backend.timeout_secs", Message: "must not be negative"})
	}
	for i, e := range c.Backend.Env {
		if !strings.Contains(e, "=") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("backend.env[%d]", i),
				Message: fmt.Sprintf("%q is not KEY=value", e),
			})
		}
	}

	if !positive(c.Suite.CaseMaxH) {
		errs = append(errs, ValidationError{Field: "suite.case_maxh", Message: "must be a positive number"})
	}
	for i, s := range c.Suite.Sizes {
		if !positive(s) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("suite.sizes[%d]", i),
				Message: fmt.Sprintf("%v is not a positive number", s),
			})
		}
	}
	if c.Suite.Repeats < 1 {
		errs = append(errs, ValidationError{Field: "suite.repeats", Message: "must be at least 1"})
	}
	if a := c.Suite.MinAngle; a != nil && (*a < 0 || *a >= 60 || math.IsNaN(*a)) {
		errs = append(errs, ValidationError{Field: "suite.min_angle", Message: "must be in [0, 60)"})
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		errs = append(errs, ValidationError{Field: "output.dir", Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// CONVERSION
// =============================================================================

// AdapterConfig returns the backend selection for adapter.New.
func (c *Config) AdapterConfig() adapter.Config {
	return adapter.Config{
		Kind:    c.Backend.Kind,
		Name:    c.Software,
		Command: c.Backend.Command,
		Args:    c.Backend.Args,
		Env:     c.Backend.Env,
		Dir:     c.Backend.Dir,
		Timeout: time.Duration(c.Backend.TimeoutSecs) * time.Second,
	}
}

// Params returns the battery parameters.
func (c *Config) Params() benchmark.Params {
	p := benchmark.Params{
		CaseMaxH: c.Suite.CaseMaxH,
		Sizes:    append([]float64(nil), c.Suite.Sizes...),
		Repeats:  c.Suite.Repeats,
	}
	if c.Suite.MinAngle != nil {
		p.MinAngle = adapter.Some(*c.Suite.MinAngle)
	}
	return p
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MESHBENCH_SOFTWARE: overrides software
//   - MESHBENCH_BACKEND: overrides backend.command
//   - MESHBENCH_BACKEND_KIND: overrides backend.kind
//   - MESHBENCH_TESTCASE: overrides suite.testcase
//   - MESHBENCH_OUTDIR: overrides output.dir
//   - MESHBENCH_REPEATS: overrides suite.repeats
//   - MESHBENCH_TIMEOUT: overrides backend.timeout_secs
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MESHBENCH_SOFTWARE"); v != "" {
		c.Software = v
	}
	if v := os.Getenv("MESHBENCH_BACKEND"); v != "" {
		c.Backend.Command = v
	}
	if v := os.Getenv("MESHBENCH_BACKEND_KIND"); v != "" {
		c.Backend.Kind = v
	}
	if v := os.Getenv("MESHBENCH_TESTCASE"); v != "" {
		c.Suite.TestCase = v
	}
	if v := os.Getenv("MESHBENCH_OUTDIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("MESHBENCH_REPEATS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Suite.Repeats = n
		} else {
			log.Printf("config: ignoring MESHBENCH_REPEATS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("MESHBENCH_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		} else {
			log.Printf("config: ignoring MESHBENCH_TIMEOUT=%q: %v", v, err)
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "suite.repeats").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field type; lists are comma-separated.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTag finds a struct field by its toml tag.
func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strings.TrimSpace(strVal))
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			return setSliceValue(field, strVal)
		case reflect.Ptr:
			if s := strings.ToLower(strings.TrimSpace(strVal)); s == "" || s == "none" || s == "unset" {
				field.Set(reflect.Zero(field.Type()))
				return nil
			}
			elem := reflect.New(field.Type().Elem())
			if err := setFieldValue(elem.Elem(), strVal); err != nil {
				return err
			}
			field.Set(elem)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

func setSliceValue(field reflect.Value, s string) error {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch field.Type().Elem().Kind() {
	case reflect.String:
		field.Set(reflect.ValueOf(parts))
		return nil
	case reflect.Float64:
		out := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return fmt.Errorf("invalid float value %q: %v", p, err)
			}
			out[i] = v
		}
		field.Set(reflect.ValueOf(out))
		return nil
	}
	return fmt.Errorf("cannot set list of %s", field.Type().Elem())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"software",
		"backend.kind",
		"backend.command",
		"backend.args",
		"backend.timeout_secs",
		"backend.env",
		"backend.dir",
		"suite.testcase",
		"suite.case_maxh",
		"suite.sizes",
		"suite.repeats",
		"suite.min_angle",
		"output.dir",
		"output.write_vtu",
		"output.cell_quality",
		"output.write_markdown",
		"history.enabled",
		"history.path",
	}
}

// String returns the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
