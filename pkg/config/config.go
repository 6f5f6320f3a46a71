// Package config loads optional run-level defaults from a YAML file.
// Flags override file values; the file exists so fleet-wide credentials
// and timeouts do not have to be repeated on every invocation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// Duration parses YAML scalars like "10s" or "2m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// File holds the run-level defaults a YAML config file can carry.
type File struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Secret       string `yaml:"secret"`
	DeviceFamily string `yaml:"device_family"`
	Port         int    `yaml:"port"`

	Concurrency    int      `yaml:"concurrency"`
	OutputDir      string   `yaml:"output_dir"`
	CommentMarkers string   `yaml:"comment_markers"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	CommandTimeout Duration `yaml:"command_timeout"`
	CommandDelay   Duration `yaml:"command_delay"`
}

// Load reads and validates a config file. The path must exist; callers
// skip Load entirely when no file was given.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInput, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrInput, path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrInput, path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Port < 0 || f.Port > 65535 {
		return fmt.Errorf("port out of range: %d", f.Port)
	}
	if f.Concurrency < 0 {
		return fmt.Errorf("concurrency must be at least 1, got %d", f.Concurrency)
	}
	if f.ConnectTimeout < 0 || f.CommandTimeout < 0 || f.CommandDelay < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
