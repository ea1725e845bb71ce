package decision

import (
	"testing"

	"github.com/offloadml/offloadml/internal/features"
	"github.com/offloadml/offloadml/internal/model"
	"github.com/offloadml/offloadml/utils"
)

func publishedArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	schema := features.BuildSchema(map[string][]string{
		"task_name":         {"matrix_multiplication", "image_compression"},
		"network_type":      {"wifi", "cellular"},
		"device_model_name": {"Pixel 7", "Galaxy S23"},
	})
	schema.Version = "v-test"

	scaler := &features.Scaler{
		Version:  "v-test",
		Features: append([]string{}, features.NumericFeatures...),
		Means:    make([]float64, len(features.NumericFeatures)),
		Scales:   make([]float64, len(features.NumericFeatures)),
	}
	for i := range scaler.Scales {
		scaler.Scales[i] = 1
	}

	// class 1 exactly when battery_level (column 0) is low
	x := make([][]float64, 40)
	y := make([]int, 40)
	for i := range x {
		x[i] = make([]float64, len(schema.Columns))
		x[i][0] = float64(i) / 40
		if x[i][0] < 0.2 {
			y[i] = 1
		}
	}
	forest := model.TrainForest(x, y, model.ForestParams{Trees: 20, MaxDepth: 3, Seed: 42})
	forest.Version = "v-test"

	set := &model.ArtifactSet{Version: "v-test", Schema: schema, Scaler: scaler, Forest: forest}
	utils.AssertNil(t, set.Save(dir))
	return dir
}

func validRequest() map[string]interface{} {
	return map[string]interface{}{
		"task_name":             "matrix_multiplication",
		"network_type":          "wifi",
		"device_model_name":     "Pixel 7",
		"battery_level":         0.05,
		"is_charging":           false,
		"latency_ms":            40.0,
		"matrix_size":           128,
		"server_cpu_load":       0.3,
		"server_memory_percent": 50.0,
	}
}

func TestPredictWithoutModel(t *testing.T) {
	service := NewService()
	utils.AssertTrue(t, !service.Loaded())
	utils.AssertEquals(t, "", service.Version())

	_, err := service.Predict(validRequest())
	utils.AssertErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadAndPredict(t *testing.T) {
	service := NewService()
	utils.AssertNil(t, service.Load(publishedArtifacts(t)))
	utils.AssertTrue(t, service.Loaded())
	utils.AssertEquals(t, "v-test", service.Version())

	d, err := service.Predict(validRequest())
	utils.AssertNil(t, err)
	utils.AssertEquals(t, LabelRemote, d.Label)
	utils.AssertTrue(t, d.Probability >= 0.5 && d.Probability <= 1.0)

	req := validRequest()
	req["battery_level"] = 0.9
	d, err = service.Predict(req)
	utils.AssertNil(t, err)
	utils.AssertEquals(t, LabelLocal, d.Label)
}

func TestPredictEncodingError(t *testing.T) {
	service := NewService()
	utils.AssertNil(t, service.Load(publishedArtifacts(t)))

	req := validRequest()
	delete(req, "latency_ms")
	_, err := service.Predict(req)
	utils.AssertErrorIs(t, err, ErrEncoding)
	utils.AssertErrorIs(t, err, features.ErrMissingFeature)
}

func TestLoadFailureKeepsPreviousSet(t *testing.T) {
	service := NewService()
	utils.AssertNil(t, service.Load(publishedArtifacts(t)))

	err := service.Load(t.TempDir())
	utils.AssertErrorIs(t, err, model.ErrNoArtifacts)

	// the previously loaded set keeps serving
	utils.AssertTrue(t, service.Loaded())
	_, err = service.Predict(validRequest())
	utils.AssertNil(t, err)
}
