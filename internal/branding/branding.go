// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only edits the YAML.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	EnvPrefix   string `yaml:"env_prefix"`
	StateDir    string `yaml:"state_dir"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is empty.
		defaults = brand{
			CLIName:     "zipwarden",
			DisplayName: "Zipwarden",
			Description: "Keeps a portable archiver install current",
			EnvPrefix:   "ZIPWARDEN",
			StateDir:    ".zipwarden",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "zipwarden").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "ZIPWARDEN").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// StateDir returns the directory name, relative to the project root, that
// holds the version check cache.
func StateDir() string { load(); return defaults.StateDir }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("LOG_DIR") → "ZIPWARDEN_LOG_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
