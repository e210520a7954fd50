package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "TEXPACK_"

// DefaultConfigFiles are looked up in the working directory when no config
// file is given
var DefaultConfigFiles = []string{"texpack.toml", "texpack.yaml", "texpack.yml", "texpack.json"}

// Options tells Load where to look
type Options struct {
	// ConfigFile is an explicit config file; it must exist.
	ConfigFile string
	// WorkDir is searched for DefaultConfigFiles when ConfigFile is empty.
	WorkDir string
	// Overrides are applied last, keyed by dotted path ("pack.name").
	Overrides map[string]interface{}
}

// Load layers defaults, the config file, environment and overrides, then
// decodes and validates the result.
func Load(opts Options) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load embedded defaults")
	}
	// The default settings are taken out here so a later "padding" shorthand
	// is not shadowed by the default paddingX and paddingY.
	base, err := takeSettings(k, settings.Default())
	if err != nil {
		return nil, err
	}

	// 2. Config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		parser, perr := parserFor(path)
		if perr != nil {
			return nil, perr
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse config file").
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	return decode(k, base)
}

// Defaults returns the embedded default configuration alone, ignoring
// config files and the environment.
func Defaults() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load embedded defaults")
	}
	return decode(k, settings.Default())
}

// takeSettings removes the settings table from k and overlays it onto base
// with the same rules as override documents: unknown keys are rejected and
// the padding shorthand is expanded.
func takeSettings(k *koanf.Koanf, base settings.Settings) (settings.Settings, error) {
	doc := k.Cut("settings").Raw()
	k.Delete("settings")

	s, err := settings.Overlay(base, settings.Document(doc))
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrOverrideParse) {
			return base, errors.Wrap(err, errors.ErrConfigParse, "invalid settings table")
		}
		return base, err
	}
	return s, nil
}

func decode(k *koanf.Koanf, base settings.Settings) (*Config, error) {
	s, err := takeSettings(k, base)
	if err != nil {
		return nil, err
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	cfg.Settings = s
	if cfg.Watch.Debounce < 0 {
		return nil, errors.New(errors.ErrConfigValid, "watch.debounce must not be negative")
	}
	return &cfg, nil
}

func findConfigFile(opts Options) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", errors.Wrap(err, errors.ErrConfigLoad, "config file not found").
				WithDetail("path", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.WorkDir
	if dir == "" {
		dir = "."
	}
	for _, name := range DefaultConfigFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	}
	return nil, errors.New(errors.ErrConfigLoad, "unsupported config file type").WithDetail("path", path)
}

// envKey maps TEXPACK_SECTION_KEY to section.key. Settings keys are matched
// against the camelCase field names, ignoring case and underscores, so
// TEXPACK_SETTINGS_PADDING_X and TEXPACK_SETTINGS_PADDINGX both set
// settings.paddingX.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	if section == "settings" {
		if canonical, ok := settingsKeys[strings.ReplaceAll(rest, "_", "")]; ok {
			rest = canonical
		}
	}
	return section + "." + rest
}

// settingsKeys maps lowercased settings keys to their canonical form
var settingsKeys = func() map[string]string {
	keys := make(map[string]string)
	t := reflect.TypeOf(settings.Settings{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			keys[strings.ToLower(tag)] = tag
		}
	}
	return keys
}()
