// Package config loads fmea.yaml and sets up logging.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fmea/internal/rpn"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "fmea.yaml"

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the content of fmea.yaml.
type Config struct {
	DataDir    string         `yaml:"data_dir"`
	Backend    string         `yaml:"backend"`
	LogLevel   string         `yaml:"log_level"`
	LogFormat  string         `yaml:"log_format"`
	SessionTTL time.Duration  `yaml:"session_ttl"`
	Thresholds rpn.Thresholds `yaml:"thresholds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir:    "data",
		Backend:    BackendJSON,
		LogLevel:   "info",
		LogFormat:  "text",
		SessionTTL: 7 * 24 * time.Hour,
		Thresholds: rpn.DefaultThresholds(),
	}
}

// Load reads path on top of the defaults and validates the result. A missing
// file yields the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// validationView is the shape the CUE schema constrains.
type validationView struct {
	DataDir           string         `json:"data_dir"`
	Backend           string         `json:"backend"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
	SessionTTLSeconds float64        `json:"session_ttl_seconds"`
	Thresholds        rpn.Thresholds `json:"thresholds"`
}

// Validate checks cfg against the embedded CUE schema.
func (c Config) Validate() error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	data, err := json.Marshal(validationView{
		DataDir:           c.DataDir,
		Backend:           c.Backend,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
		SessionTTLSeconds: c.SessionTTL.Seconds(),
		Thresholds:        c.Thresholds,
	})
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	value := cctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Write stores cfg as YAML at path, refusing to overwrite an existing file.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
