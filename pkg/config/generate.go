package config

import (
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Output formats understood by Render
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// GenerateConfigContent generates the configuration file content with commented values
func GenerateConfigContent() string {
	return commentOutConfigValues(GetDefaultsContent())
}

// commentOutConfigValues takes the TOML content and comments out all non-comment, non-blank lines
// that contain configuration values (assignments)
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Keep blank lines, comments and section headers as-is
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}

// Render serializes v, a Config or Settings value, in format.
// JSON output uses the koanf key names.
func Render(v interface{}, format string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case FormatTOML, "":
		out, err = toml.Marshal(v)
	case FormatYAML, "yml":
		out, err = yaml.Marshal(v)
	case FormatJSON:
		var m map[string]interface{}
		if err = decodeToMap(v, &m); err == nil {
			out, err = json.Parser().Marshal(m)
		}
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unsupported output format %q", format).
			WithDetail("allowed", []string{FormatTOML, FormatYAML, FormatJSON})
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render").WithDetail("format", format)
	}
	return out, nil
}

func decodeToMap(v interface{}, m *map[string]interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "koanf",
		Result:  m,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}
