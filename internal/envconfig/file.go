package envconfig

import (
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/hourglass/internal/hourglass"
	"github.com/born-ml/hourglass/internal/tensor"
)

// ErrInvalidShape is returned for an input shape that is not HxWxC.
var ErrInvalidShape = errors.New("invalid shape")

// ParseShape parses "HxWxC" (also "H,W,C") into a feature shape.
func ParseShape(s string) (tensor.FeatureShape, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == 'x' || r == ',' || r == ' '
	})
	if len(parts) != 3 {
		return tensor.FeatureShape{}, errors.Wrapf(ErrInvalidShape, "%q: want HxWxC", s)
	}
	dims := make([]int, 3)
	for i, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil || d <= 0 {
			return tensor.FeatureShape{}, errors.Wrapf(ErrInvalidShape, "%q: dimension %q", s, p)
		}
		dims[i] = d
	}
	return tensor.NewFeatureShape(dims[0], dims[1], dims[2]), nil
}

var featureShapeType = reflect.TypeOf(tensor.FeatureShape{})

// shapeHook accepts input_shape as "256x256x3" or [256, 256, 3]. Maps fall
// through to the default struct decoding.
func shapeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != featureShapeType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParseShape(v)
	case []any:
		if len(v) != 3 {
			return nil, errors.Wrapf(ErrInvalidShape, "%v: want [H, W, C]", v)
		}
		dims := make([]int, 3)
		for i, d := range v {
			n, err := toInt(d)
			if err != nil || n <= 0 {
				return nil, errors.Wrapf(ErrInvalidShape, "%v: dimension %v", v, d)
			}
			dims[i] = n
		}
		return tensor.NewFeatureShape(dims[0], dims[1], dims[2]), nil
	}
	return data, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, errors.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, errors.Errorf("unexpected %T", v)
	}
}

// Decode reads a YAML document from r on top of base. Keys absent from the
// document keep their base value; unknown keys are an error.
func Decode(r io.Reader, base hourglass.Config) (hourglass.Config, error) {
	raw := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return base, errors.Wrap(err, "parse yaml")
	}

	cfg := base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       shapeHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return base, errors.Wrap(err, "create decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return base, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// LoadFile decodes the YAML file at path on top of base.
func LoadFile(path string, base hourglass.Config) (hourglass.Config, error) {
	//nolint:gosec // G304: the configuration path is supplied by the user
	f, err := os.Open(path)
	if err != nil {
		return base, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Decode(f, base)
	if err != nil {
		return base, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
