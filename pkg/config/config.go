package config

import (
	"time"

	"github.com/arthur-debert/texpack/pkg/processor"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/arthur-debert/texpack/pkg/walker"
)

// Config is the resolved run configuration
type Config struct {
	Pack     Pack              `koanf:"pack" toml:"pack" yaml:"pack"`
	Walk     Walk              `koanf:"walk" toml:"walk" yaml:"walk"`
	Cleanup  Cleanup           `koanf:"cleanup" toml:"cleanup" yaml:"cleanup"`
	Watch    Watch             `koanf:"watch" toml:"watch" yaml:"watch"`
	Settings settings.Settings `koanf:"settings" toml:"settings" yaml:"settings"`
}

// Pack names the files a run reads and writes
type Pack struct {
	Name         string `koanf:"name" toml:"name" yaml:"name"`
	OverrideName string `koanf:"override_name" toml:"override_name" yaml:"override_name"`
}

// Walk controls traversal of the input tree
type Walk struct {
	InputSuffixes []string `koanf:"input_suffixes" toml:"input_suffixes" yaml:"input_suffixes"`
	Excludes      []string `koanf:"excludes" toml:"excludes" yaml:"excludes"`
	Flatten       bool     `koanf:"flatten" toml:"flatten" yaml:"flatten"`
	Recursive     bool     `koanf:"recursive" toml:"recursive" yaml:"recursive"`
}

// Cleanup controls which stale pages are removed
type Cleanup struct {
	ImageExtensions []string `koanf:"image_extensions" toml:"image_extensions" yaml:"image_extensions"`
}

// Watch controls watch mode
type Watch struct {
	Debounce time.Duration `koanf:"debounce" toml:"debounce" yaml:"debounce"`
}

// ProcessorConfig converts the configuration for a processor run
func (c *Config) ProcessorConfig(dryRun bool) processor.Config {
	return processor.Config{
		Defaults:     settings.Clone(c.Settings),
		PackFileName: c.Pack.Name,
		OverrideName: c.Pack.OverrideName,
		Walk: walker.Options{
			InputSuffixes: c.Walk.InputSuffixes,
			Excludes:      c.Walk.Excludes,
			Flatten:       c.Walk.Flatten,
			Recursive:     c.Walk.Recursive,
		},
		StaleExtensions: c.Cleanup.ImageExtensions,
		DryRun:          dryRun,
	}
}
