// Package config loads and saves per-project configuration for the
// dialogic compiler and its tools: the default locale, which node a
// fresh VM starts on, where exported strings tables land, and which
// experimental features are switched on (spec.md §7 "Configuration").
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all project configuration loaded from .dialogic/config.json.
type Config struct {
	// DefaultLocale is the BCP-47 tag used to resolve [plural]/[select]/
	// [ordinal] markup when a run doesn't specify one (e.g. "en-US").
	DefaultLocale string `json:"default_locale,omitempty"`

	// DefaultStartNode names the node SetStartNode uses when a command
	// doesn't pass --start explicitly.
	DefaultStartNode string `json:"default_start_node,omitempty"`

	// StringsFile is the path (relative to the project root) that
	// `strings export`/`strings update` read and write.
	StringsFile string `json:"strings_file,omitempty"`

	Features FeatureFlags `json:"features,omitempty"`
}

// FeatureFlags holds experimental feature switches. They are loaded and
// saved with the config, but no compiler or VM code reads them, so
// setting them changes no behavior.
type FeatureFlags struct {
	// StrictDeferredTypes names strict handling of "still undeclared
	// after every file has run" (E-TYPE-007). That diagnostic is always
	// an error, whatever this flag says.
	StrictDeferredTypes bool `json:"strict_deferred_types,omitempty"`

	// SmartVariableReplacement names the "once set, a variable default
	// tracks node visit history" shorthand; nothing implements it.
	SmartVariableReplacement bool `json:"smart_variable_replacement,omitempty"`
}

// configFileName is the configuration file path relative to the project root.
const configFileName = ".dialogic/config.json"

// Default returns the configuration a project gets when no config file
// is present: English locale, a "Start" node, and a strings.csv file
// next to the sources.
func Default() *Config {
	return &Config{
		DefaultLocale:    "en-US",
		DefaultStartNode: "Start",
		StringsFile:      "strings.csv",
	}
}

// Load reads the project configuration from .dialogic/config.json in the
// given project directory. If the file doesn't exist, it returns
// Default() (not an error).
func Load(projectDir string) (*Config, error) {
	path := filepath.Join(projectDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configFileName, err)
	}
	return cfg, nil
}

// Save writes the config to .dialogic/config.json, creating the
// directory if needed.
func Save(projectDir string, cfg *Config) error {
	dir := filepath.Join(projectDir, ".dialogic")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating .dialogic directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(projectDir, configFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}

	return nil
}
