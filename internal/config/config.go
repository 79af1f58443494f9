package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for sigscan. All
// fields are pointers so "unset" can be told apart from zero values when
// merging with CLI flags.
type FileConfig struct {
	Rules         *string `yaml:"rules"`
	ValidateCache *bool   `yaml:"validate_cache"`
	Include       *string `yaml:"include"`
	Exclude       *string `yaml:"exclude"`
	MaxBytes      *int64  `yaml:"max_bytes"`
	Threads       *int    `yaml:"threads"`
	NoColor       *bool   `yaml:"no_color"`
	FailOn        *string `yaml:"fail_on"`
	PEMeta        *bool   `yaml:"pe_meta"`
	Namespace     *string `yaml:"namespace"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .sigscan.yml/.yaml and sigscan.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".sigscan.yml", ".sigscan.yaml", "sigscan.yml", "sigscan.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "sigscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// PickString returns the first non-empty value: CLI flag, then local config,
// then global config.
func PickString(flag string, local, global *string) string {
	if flag != "" {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return ""
}

// PickInt64 resolves CLI > local > global, treating 0 as "unset" for flags.
func PickInt64(flag int64, local, global *int64) int64 {
	if flag != 0 {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return 0
}

// PickInt resolves CLI > local > global, treating 0 as "unset" for flags.
func PickInt(flag int, local, global *int) int {
	if flag != 0 {
		return flag
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return 0
}

// PickBool resolves CLI > local > global. A true flag always wins; config
// only applies when the flag was left false.
func PickBool(flag bool, local, global *bool) bool {
	if flag {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}
