/* Copyright 2025 Flockbook Authors
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

// Package config reads and writes the flockbook configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/consts"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultSyncInterval is the interval of `sync --watch` when none is configured
const DefaultSyncInterval = 5 * time.Minute

// Remote holds the settings of the remote store
type Remote struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
}

// Config holds flockbook configuration
type Config struct {
	Remote             Remote `yaml:"remote"`
	SyncInterval       string `yaml:"syncInterval,omitempty"`
	EnableUpgradeCheck bool   `yaml:"enableUpgradeCheck"`
}

// Interval parses the sync interval, falling back to the default when it
// is missing or invalid
func (c Config) Interval() time.Duration {
	if c.SyncInterval == "" {
		return DefaultSyncInterval
	}

	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil || d < time.Second {
		return DefaultSyncInterval
	}

	return d
}

// GetPath returns the path to the flockbook config file
func GetPath(ctx context.FlockCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.AppDirName, consts.ConfigFilename)
}

// Read reads the config file and applies the environment overrides
func Read(ctx context.FlockCtx) (Config, error) {
	var ret Config

	b, err := os.ReadFile(GetPath(ctx))
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	applyEnv(&ret)

	return ret, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv(consts.EnvRemoteURL); v != "" {
		c.Remote.URL = v
	}
	if v := os.Getenv(consts.EnvRemoteKey); v != "" {
		c.Remote.APIKey = v
	}
}

// Write writes the config to the config file
func Write(ctx context.FlockCtx, cf Config) error {
	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	if err := os.WriteFile(GetPath(ctx), b, 0600); err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
