package settings

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/mitchellh/copystructure"
)

// Descriptor formats understood by the packing engine
const (
	DescriptorGdx = "gdx"
	DescriptorXML = "xml"
)

// Settings controls how one directory is packed
type Settings struct {
	PaddingX         int  `koanf:"paddingX" json:"paddingX" toml:"paddingX" yaml:"paddingX"`
	PaddingY         int  `koanf:"paddingY" json:"paddingY" toml:"paddingY" yaml:"paddingY"`
	EdgePadding      bool `koanf:"edgePadding" json:"edgePadding" toml:"edgePadding" yaml:"edgePadding"`
	DuplicatePadding bool `koanf:"duplicatePadding" json:"duplicatePadding" toml:"duplicatePadding" yaml:"duplicatePadding"`
	Rotation         bool `koanf:"rotation" json:"rotation" toml:"rotation" yaml:"rotation"`

	MinWidth   int  `koanf:"minWidth" json:"minWidth" toml:"minWidth" yaml:"minWidth"`
	MinHeight  int  `koanf:"minHeight" json:"minHeight" toml:"minHeight" yaml:"minHeight"`
	MaxWidth   int  `koanf:"maxWidth" json:"maxWidth" toml:"maxWidth" yaml:"maxWidth"`
	MaxHeight  int  `koanf:"maxHeight" json:"maxHeight" toml:"maxHeight" yaml:"maxHeight"`
	PowerOfTwo bool `koanf:"pot" json:"pot" toml:"pot" yaml:"pot"`
	Square     bool `koanf:"square" json:"square" toml:"square" yaml:"square"`

	StripWhitespaceX bool `koanf:"stripWhitespaceX" json:"stripWhitespaceX" toml:"stripWhitespaceX" yaml:"stripWhitespaceX"`
	StripWhitespaceY bool `koanf:"stripWhitespaceY" json:"stripWhitespaceY" toml:"stripWhitespaceY" yaml:"stripWhitespaceY"`
	AlphaThreshold   int  `koanf:"alphaThreshold" json:"alphaThreshold" toml:"alphaThreshold" yaml:"alphaThreshold"`

	FilterMin string `koanf:"filterMin" json:"filterMin" toml:"filterMin" yaml:"filterMin"`
	FilterMag string `koanf:"filterMag" json:"filterMag" toml:"filterMag" yaml:"filterMag"`
	WrapX     string `koanf:"wrapX" json:"wrapX" toml:"wrapX" yaml:"wrapX"`
	WrapY     string `koanf:"wrapY" json:"wrapY" toml:"wrapY" yaml:"wrapY"`
	Format    string `koanf:"format" json:"format" toml:"format" yaml:"format"`

	Alias             bool    `koanf:"alias" json:"alias" toml:"alias" yaml:"alias"`
	OutputFormat      string  `koanf:"outputFormat" json:"outputFormat" toml:"outputFormat" yaml:"outputFormat"`
	JPEGQuality       float64 `koanf:"jpegQuality" json:"jpegQuality" toml:"jpegQuality" yaml:"jpegQuality"`
	IgnoreBlankImages bool    `koanf:"ignoreBlankImages" json:"ignoreBlankImages" toml:"ignoreBlankImages" yaml:"ignoreBlankImages"`
	FlattenPaths      bool    `koanf:"flattenPaths" json:"flattenPaths" toml:"flattenPaths" yaml:"flattenPaths"`
	PremultiplyAlpha  bool    `koanf:"premultiplyAlpha" json:"premultiplyAlpha" toml:"premultiplyAlpha" yaml:"premultiplyAlpha"`
	UseIndexes        bool    `koanf:"useIndexes" json:"useIndexes" toml:"useIndexes" yaml:"useIndexes"`

	// UseDirNameAsInnerFolderName names a non-root directory's pages after
	// the directory instead of after the pack file.
	UseDirNameAsInnerFolderName bool `koanf:"useDirNameAsInnerFolderName" json:"useDirNameAsInnerFolderName" toml:"useDirNameAsInnerFolderName" yaml:"useDirNameAsInnerFolderName"`

	Descriptor string `koanf:"descriptor" json:"descriptor" toml:"descriptor" yaml:"descriptor"`

	// Ignore holds exclude patterns, relative to the directory being packed.
	Ignore []string `koanf:"ignore" json:"ignore" toml:"ignore" yaml:"ignore"`
}

// Default returns the stock packing settings
func Default() Settings {
	return Settings{
		PaddingX:          2,
		PaddingY:          2,
		EdgePadding:       true,
		MinWidth:          16,
		MinHeight:         16,
		MaxWidth:          1024,
		MaxHeight:         1024,
		PowerOfTwo:        true,
		FilterMin:         "Nearest",
		FilterMag:         "Nearest",
		WrapX:             "ClampToEdge",
		WrapY:             "ClampToEdge",
		Format:            "RGBA8888",
		Alias:             true,
		OutputFormat:      "png",
		JPEGQuality:       0.9,
		IgnoreBlankImages: true,
		UseIndexes:        true,
		Descriptor:        DescriptorGdx,
	}
}

// Clone returns a deep copy of s. Slices in the copy never share backing
// arrays with s.
func Clone(s Settings) Settings {
	return copystructure.Must(copystructure.Copy(s)).(Settings)
}

var (
	validFilters = []string{
		"Nearest", "Linear", "MipMap", "MipMapNearestNearest", "MipMapLinearNearest",
		"MipMapNearestLinear", "MipMapLinearLinear",
	}
	validWraps   = []string{"ClampToEdge", "Repeat", "MirroredRepeat"}
	validFormats = []string{"Alpha", "Intensity", "LuminanceAlpha", "RGB565", "RGBA4444", "RGB888", "RGBA8888"}
)

// Validate reports the first invalid field of s
func (s Settings) Validate() error {
	switch {
	case s.PaddingX < 0 || s.PaddingY < 0:
		return invalid("padding must not be negative")
	case s.MinWidth < 1 || s.MinHeight < 1:
		return invalid("minWidth and minHeight must be positive")
	case s.MaxWidth < s.MinWidth || s.MaxHeight < s.MinHeight:
		return invalid("maxWidth/maxHeight must not be smaller than minWidth/minHeight")
	case s.AlphaThreshold < 0 || s.AlphaThreshold > 255:
		return invalid("alphaThreshold must be within 0..255")
	case s.JPEGQuality < 0 || s.JPEGQuality > 1:
		return invalid("jpegQuality must be within 0..1")
	}

	switch strings.ToLower(s.OutputFormat) {
	case "png", "jpg", "jpeg":
	default:
		return invalid(fmt.Sprintf("unsupported outputFormat %q", s.OutputFormat))
	}
	switch s.Descriptor {
	case DescriptorGdx, DescriptorXML:
	default:
		return invalid(fmt.Sprintf("unsupported descriptor %q", s.Descriptor))
	}

	checks := []struct {
		field string
		value string
		allow []string
	}{
		{"filterMin", s.FilterMin, validFilters},
		{"filterMag", s.FilterMag, validFilters},
		{"wrapX", s.WrapX, validWraps},
		{"wrapY", s.WrapY, validWraps},
		{"format", s.Format, validFormats},
	}
	for _, c := range checks {
		if !contains(c.allow, c.value) {
			return invalid(fmt.Sprintf("unsupported %s %q", c.field, c.value)).
				WithDetail("allowed", c.allow)
		}
	}
	return nil
}

// ImageExtension is the file extension of generated pages, without the dot
func (s Settings) ImageExtension() string {
	if strings.EqualFold(s.OutputFormat, "jpeg") {
		return "jpg"
	}
	return strings.ToLower(s.OutputFormat)
}

func invalid(msg string) *errors.TexpackError {
	return errors.New(errors.ErrConfigValid, msg)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
