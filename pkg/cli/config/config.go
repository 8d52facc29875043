/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads and writes the notesync configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultDebounceMs is the default autosave quiet period in milliseconds
	DefaultDebounceMs = 500
	// DefaultProbeInterval is the default interval between health checks
	DefaultProbeInterval = "10s"
	// DefaultRetryInterval is the default cron schedule of retry campaigns
	DefaultRetryInterval = "@every 1m"
	// DefaultRequestTimeout is the default timeout of a single remote request
	DefaultRequestTimeout = "15s"
)

// Config holds notesync configuration
type Config struct {
	Editor         string `yaml:"editor"`
	APIEndpoint    string `yaml:"apiEndpoint"`
	DebounceMs     int    `yaml:"debounceMs"`
	ProbeInterval  string `yaml:"probeInterval"`
	RetryInterval  string `yaml:"retryInterval"`
	RequestTimeout string `yaml:"requestTimeout"`
	Pull           bool   `yaml:"pull"`
}

// Default returns a configuration with default values
func Default(editor, apiEndpoint string) Config {
	return Config{
		Editor:         editor,
		APIEndpoint:    apiEndpoint,
		DebounceMs:     DefaultDebounceMs,
		ProbeInterval:  DefaultProbeInterval,
		RetryInterval:  DefaultRetryInterval,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// fillDefaults sets the default for every key missing from the file
func (c *Config) fillDefaults() {
	if c.DebounceMs <= 0 {
		c.DebounceMs = DefaultDebounceMs
	}
	if c.ProbeInterval == "" {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.RetryInterval == "" {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// DebounceDelay returns the autosave quiet period
func (c Config) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ProbeEvery returns the interval between health checks
func (c Config) ProbeEvery() (time.Duration, error) {
	d, err := time.ParseDuration(c.ProbeInterval)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing probeInterval %q", c.ProbeInterval)
	}
	if d <= 0 {
		return 0, errors.Errorf("probeInterval must be positive, got %q", c.ProbeInterval)
	}

	return d, nil
}

// Timeout returns the timeout of a single remote request
func (c Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing requestTimeout %q", c.RequestTimeout)
	}

	return d, nil
}

// GetPath returns the path to the config file
func GetPath(ctx context.NotesCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.AppDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.NotesCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	ret.fillDefaults()

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.NotesCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
