package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mamaar/reshape/pkg/types"
)

// ConfigFileName is looked up at the project root.
const ConfigFileName = ".reshape.yaml"

// Config carries per-project settings. Missing fields keep their defaults;
// a missing file means an all-default config.
type Config struct {
	// Scope is the default reference-update scope for operations that do
	// not pass one explicitly.
	Scope types.Scope `yaml:"scope"`
	// ScopePreset, when set, initializes Scope from a named preset before
	// the explicit scope fields are applied.
	ScopePreset string `yaml:"scope_preset"`
	// OracleTimeout bounds each code-intelligence oracle call.
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
	// LockTimeout bounds how long an apply waits in the operation queue.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Scope:         types.StandardScope(),
		OracleTimeout: 5 * time.Second,
		LockTimeout:   30 * time.Second,
	}
}

// LoadConfig reads .reshape.yaml from root, falling back to defaults when
// the file is absent.
func LoadConfig(root string) (Config, error) {
	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a config document over the defaults.
func ParseConfig(data []byte) (Config, error) {
	var raw struct {
		Scope         *types.Scope `yaml:"scope"`
		ScopePreset   string       `yaml:"scope_preset"`
		OracleTimeout string       `yaml:"oracle_timeout"`
		LockTimeout   string       `yaml:"lock_timeout"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	cfg := DefaultConfig()
	if raw.ScopePreset != "" {
		preset, ok := types.ScopePreset(raw.ScopePreset)
		if !ok {
			return Config{}, types.NewInvalidRequest("unknown scope preset %q", raw.ScopePreset)
		}
		cfg.Scope = preset
		cfg.ScopePreset = raw.ScopePreset
	}
	if raw.Scope != nil {
		cfg.Scope = *raw.Scope
	}
	if raw.OracleTimeout != "" {
		d, err := time.ParseDuration(raw.OracleTimeout)
		if err != nil {
			return Config{}, types.NewInvalidRequest("bad oracle_timeout: %v", err)
		}
		cfg.OracleTimeout = d
	}
	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return Config{}, types.NewInvalidRequest("bad lock_timeout: %v", err)
		}
		cfg.LockTimeout = d
	}
	return cfg, nil
}
