package features

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

var ErrMissingFeature = errors.New("missing required feature")
var ErrBadFeatureValue = errors.New("feature value is not usable")

// featureDefaults are the numeric features that may legitimately be absent
// from a request; every task sends only the size measure it has.
var featureDefaults = map[string]float64{
	"matrix_size":   0,
	"image_size_kb": 0,
}

// Encode turns a raw request into a numeric vector aligned to schema:
// numeric and passthrough fields enter by name, categorical fields one-hot
// expand to <field>_<value> indicators, and the resulting column set is
// re-projected onto the schema in schema order. Columns the request produces
// but the schema lacks are dropped; schema columns the request lacks become
// zero, so an unknown categorical value encodes as an all-zero block.
// When scaler is non-nil the numeric subset is standardized in place.
func Encode(req map[string]interface{}, schema *Schema, scaler *Scaler) ([]float64, error) {
	cols := make(map[string]float64)

	for _, name := range NumericFeatures {
		raw, ok := req[name]
		if !ok || raw == nil {
			if def, hasDefault := featureDefaults[name]; hasDefault {
				cols[name] = def
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadFeatureValue, name, err)
		}
		cols[name] = v
	}

	for _, name := range PassthroughFeatures {
		raw, ok := req[name]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadFeatureValue, name, err)
		}
		cols[name] = v
	}

	for _, name := range CategoricalFeatures {
		raw, ok := req[name]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		value, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadFeatureValue, name, err)
		}
		cols[OneHotColumn(name, value)] = 1
	}

	vec := make([]float64, len(schema.Columns))
	for i, col := range schema.Columns {
		if v, ok := cols[col]; ok {
			vec[i] = v
		}
	}

	if scaler != nil {
		if err := scaler.Transform(vec, schema); err != nil {
			return nil, err
		}
	}

	return vec, nil
}
