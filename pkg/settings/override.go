package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	texerrors "github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// DefaultOverrideName is the override document looked up in every directory
const DefaultOverrideName = "pack.json"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// LoadOverride reads the override document name directly inside dir.
// A missing document is not an error: it returns a nil Document.
func LoadOverride(fsys filesystem.FS, dir, name string) (Document, error) {
	logger := logging.GetLogger("settings.override")
	path := filepath.Join(dir, name)

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, texerrors.Wrap(err, texerrors.ErrOverrideRead, "cannot read override document").
			WithDetail("path", path)
	}

	parser, perr := parserFor(name)
	if perr != nil {
		return nil, perr.WithDetail("path", path)
	}

	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, texerrors.Wrap(err, texerrors.ErrOverrideParse, "malformed override document").
			WithDetail("path", path)
	}

	logger.Debug().Str("path", path).Strs("keys", k.Keys()).Msg("Loaded override document")
	return Document(k.Raw()), nil
}

func parserFor(name string) (koanf.Parser, *texerrors.TexpackError) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, texerrors.Newf(texerrors.ErrInvalidInput, "no parser for override document %q", name)
}
