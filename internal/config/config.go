// Package config loads the optional YAML configuration file of the
// abdedge server. Allowed origins never come from this file; they are
// read from the environment only.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brunoabdon/abdedge/cors"
)

const (
	DefaultListen    = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// File is the shape of the YAML configuration file.
type File struct {
	Listen string `yaml:"listen"`
	Log    Log    `yaml:"log"`
	CORS   CORS   `yaml:"cors"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORS holds the CORS settings that may vary between deployments.
type CORS struct {
	PreflightSuccessStatus int  `yaml:"preflight_success_status"`
	PreflightFailureStatus int  `yaml:"preflight_failure_status"`
	PublicSuffixSubdomains bool `yaml:"public_suffix_subdomains"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		Listen: DefaultListen,
		Log: Log{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the file at path on top of [Default].
// Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return f, nil
}

// ApplyTo copies the file's CORS settings into cfg.
func (c CORS) ApplyTo(cfg *cors.Config) {
	cfg.PreflightSuccessStatus = c.PreflightSuccessStatus
	cfg.PreflightFailureStatus = c.PreflightFailureStatus
	cfg.DangerouslyTolerateSubdomainsOfPublicSuffixes = c.PublicSuffixSubdomains
}
