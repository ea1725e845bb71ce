package features

import "golang.org/x/exp/slices"

// NumericFeatures is the fixed set of model inputs standardized by the scaler.
var NumericFeatures = []string{
	"battery_level",
	"latency_ms",
	"matrix_size",
	"image_size_kb",
	"server_cpu_load",
	"server_memory_percent",
}

// CategoricalFeatures is the fixed set of one-hot-expanded inputs.
var CategoricalFeatures = []string{
	"task_name",
	"network_type",
	"device_model_name",
}

// PassthroughFeatures enter the vector as-is (booleans become 0/1) and are
// neither scaled nor expanded.
var PassthroughFeatures = []string{
	"is_charging",
}

// rawFeatureOrder is the relative order of non-expanded columns in a schema,
// matching the training pipeline's feature selection.
var rawFeatureOrder = []string{
	"battery_level",
	"is_charging",
	"latency_ms",
	"matrix_size",
	"image_size_kb",
	"server_cpu_load",
	"server_memory_percent",
}

// Schema is the ordered column list fixed by one training run. Serving must
// encode every live request against exactly this list: the classifier
// indexes features positionally.
type Schema struct {
	Version string   `json:"version"`
	Columns []string `json:"columns"`
}

// OneHotColumn names the indicator column for a categorical value.
func OneHotColumn(feature, value string) string {
	return feature + "_" + value
}

// BuildSchema produces the column list for the given observed category values.
// Raw columns come first, then per categorical feature its categories sorted
// with the first dropped, so the reference category encodes as an all-zero
// block and the expansion stays free of collinearity.
func BuildSchema(observed map[string][]string) *Schema {
	columns := append([]string{}, rawFeatureOrder...)
	for _, feature := range CategoricalFeatures {
		values := append([]string{}, observed[feature]...)
		slices.Sort(values)
		values = slices.Compact(values)
		if len(values) > 0 {
			values = values[1:]
		}
		for _, v := range values {
			columns = append(columns, OneHotColumn(feature, v))
		}
	}
	return &Schema{Columns: columns}
}
