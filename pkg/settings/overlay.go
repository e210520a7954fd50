package settings

import (
	"reflect"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Document is a parsed override document: only the keys it carries change
// a Settings value.
type Document map[string]interface{}

// Overlay returns a copy of base with the fields present in doc replaced.
// Absent fields keep base's values; list fields present in doc are replaced
// wholesale, never merged. Unknown keys are an error.
func Overlay(base Settings, doc Document) (Settings, error) {
	out := Clone(base)
	if len(doc) == 0 {
		return out, nil
	}

	normalized := normalize(doc)
	clearListFields(&out, normalized)

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}(normalized), ""), nil); err != nil {
		return base, errors.Wrap(err, errors.ErrOverrideParse, "failed to load override fields")
	}

	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &out, unmarshalConf); err != nil {
		return base, errors.Wrap(err, errors.ErrOverrideParse, "failed to apply override fields")
	}

	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// normalize expands shorthand keys. "padding" sets both paddingX and
// paddingY unless the document names them itself.
func normalize(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if padding, ok := lookup(out, "padding"); ok {
		deleteKey(out, "padding")
		for _, key := range []string{"paddingX", "paddingY"} {
			if _, set := lookup(out, key); !set {
				out[key] = padding
			}
		}
	}
	return out
}

// clearListFields zeroes slice fields that doc is about to set, so the
// decoder replaces them instead of writing element by element into the
// inherited slice.
func clearListFields(s *Settings, doc Document) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Slice {
			continue
		}
		if _, ok := lookup(doc, field.Tag.Get("koanf")); ok {
			v.Field(i).Set(reflect.Zero(field.Type))
		}
	}
}

// lookup finds key case-insensitively, matching how the decoder binds fields
func lookup(doc Document, key string) (interface{}, bool) {
	if v, ok := doc[key]; ok {
		return v, true
	}
	for k, v := range doc {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func deleteKey(doc Document, key string) {
	for k := range doc {
		if strings.EqualFold(k, key) {
			delete(doc, k)
		}
	}
}
