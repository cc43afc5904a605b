// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the optional pfopn.hcl tool configuration. The
// file holds defaults that command-line flags override; a missing file
// is not an error.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"grimm.is/pfopn/internal/errors"
)

// FileName is the config file looked up in the working directory and
// under the user config dir when no explicit path is given.
const FileName = "pfopn.hcl"

// Config is the decoded tool configuration.
type Config struct {
	// ProfilesDir and MappingsDir override the embedded TOML data.
	ProfilesDir string `hcl:"profiles_dir,optional"`
	MappingsDir string `hcl:"mappings_dir,optional"`

	// Color forces colored report output on or off; unset follows the
	// terminal.
	Color *bool `hcl:"color,optional"`

	// Strict makes verify and migrate-check treat warnings as failures.
	Strict bool `hcl:"strict,optional"`

	// DHCPBackend is the default convert backend policy: auto, isc, or kea.
	DHCPBackend string `hcl:"dhcp_backend,optional"`

	Logging *Logging `hcl:"logging,block"`
}

// Logging configures the slog handler.
type Logging struct {
	Level string `hcl:"level,optional"`
	JSON  bool   `hcl:"json,optional"`
}

// Load reads and decodes the config at path. An empty path searches the
// default locations; a missing file yields a zero Config and no error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = findDefault()
		if path == "" {
			return Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, errors.Wrapf(err, errors.KindNotFound, "failed to read config file %s", path)
	}
	return decode(path, data)
}

func decode(filename string, data []byte) (Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, data, evalContext(), &cfg); err != nil {
		return Config{}, errors.Wrapf(err, errors.KindValidation, "failed to decode config file %s", filename)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DHCPBackend {
	case "", "auto", "isc", "kea":
	default:
		return errors.Errorf(errors.KindValidation,
			"dhcp_backend must be auto, isc, or kea (got %q)", c.DHCPBackend)
	}
	if c.Logging != nil {
		switch strings.ToLower(c.Logging.Level) {
		case "", "debug", "info", "warn", "error":
		default:
			return errors.Errorf(errors.KindValidation,
				"logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
		}
	}
	return nil
}

// evalContext exposes the environment as an `env` object so config
// values can reference it, e.g. profiles_dir = env.PFOPN_PROFILES.
func evalContext() *hcl.EvalContext {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = cty.StringVal(value)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// findDefault checks the working directory first, then the user config
// dir.
func findDefault() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(dir, "pfopn", FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
