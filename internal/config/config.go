// Package config loads .taskrun.yaml and merges it with command-line
// flags. Flags that the user set explicitly win over the file; file
// values win over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for runner behavior.
const (
	DefaultSpinnerStyle = "dots"
	DefaultIntervalMS   = 200
	DefaultColumns      = 120
	ConfigFileName      = ".taskrun.yaml"
)

// FileConfig is the on-disk shape of .taskrun.yaml.
type FileConfig struct {
	Spinner      string `yaml:"spinner"`       // named style
	SpinnerChars string `yaml:"spinner_chars"` // custom frames, overrides Spinner
	IntervalMS   int    `yaml:"interval_ms"`
	NoColor      bool   `yaml:"no_color"`
	Columns      int    `yaml:"columns"` // width fallback when detection fails
}

// CliFlags holds command-line flag values plus explicit-set tracking so
// the merge can tell a default false from a user's false.
type CliFlags struct {
	Label        string
	Spinner      string
	SpinnerChars string
	Interval     time.Duration
	NoColor      bool
	Debug        bool

	SpinnerSet  bool
	IntervalSet bool
	NoColorSet  bool
}

// Settings is the merged, effective configuration.
type Settings struct {
	Spinner      string
	SpinnerChars string
	Interval     time.Duration
	NoColor      bool
	Columns      int
	Debug        bool
}

// Load reads .taskrun.yaml from the working directory, then from the
// user config directory. A missing file is not an error; a malformed one
// is reported on stderr and ignored, so a broken config never blocks a
// run.
func Load() FileConfig {
	var cfg FileConfig
	path := findConfigFile()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error reading %s: %v. Using defaults.\n", path, err)
		}
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error parsing %s: %v. Using defaults.\n", path, err)
		return FileConfig{}
	}
	return cfg
}

func findConfigFile() string {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	confDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(confDir, "taskrun", ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Merge resolves effective settings: defaults, then file values, then
// explicitly-set flags.
func Merge(file FileConfig, flags CliFlags) Settings {
	s := Settings{
		Spinner:  DefaultSpinnerStyle,
		Interval: DefaultIntervalMS * time.Millisecond,
		Columns:  DefaultColumns,
		Debug:    flags.Debug,
	}

	if file.Spinner != "" {
		s.Spinner = file.Spinner
	}
	if file.SpinnerChars != "" {
		s.SpinnerChars = file.SpinnerChars
	}
	if file.IntervalMS > 0 {
		s.Interval = time.Duration(file.IntervalMS) * time.Millisecond
	}
	if file.NoColor {
		s.NoColor = true
	}
	if file.Columns > 0 {
		s.Columns = file.Columns
	}

	if flags.SpinnerSet && flags.Spinner != "" {
		s.Spinner = flags.Spinner
		s.SpinnerChars = ""
	}
	if flags.SpinnerChars != "" {
		s.SpinnerChars = flags.SpinnerChars
	}
	if flags.IntervalSet && flags.Interval > 0 {
		s.Interval = flags.Interval
	}
	if flags.NoColorSet {
		s.NoColor = flags.NoColor
	}

	return s
}
