package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/offloadml/offloadml/internal/client"
	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/decision"
	"github.com/offloadml/offloadml/internal/features"
	"github.com/offloadml/offloadml/internal/model"
	"github.com/offloadml/offloadml/internal/telemetry"
)

func setupHandlers(t *testing.T) *telemetry.Store {
	t.Helper()
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "benchmark_data.csv"))
	Init(store, decision.NewService())
	return store
}

func setupHandlersWithModel(t *testing.T) *telemetry.Store {
	t.Helper()
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "benchmark_data.csv"))

	dir := t.TempDir()
	schema := features.BuildSchema(map[string][]string{
		"task_name":         {"matrix_multiplication", "image_compression"},
		"network_type":      {"wifi", "cellular"},
		"device_model_name": {"Pixel 7", "Galaxy S23"},
	})
	schema.Version = "v-api-test"

	scaler := &features.Scaler{
		Version:  "v-api-test",
		Features: append([]string{}, features.NumericFeatures...),
		Means:    make([]float64, len(features.NumericFeatures)),
		Scales:   make([]float64, len(features.NumericFeatures)),
	}
	for i := range scaler.Scales {
		scaler.Scales[i] = 1
	}

	// offload exactly when battery_level (column 0) is low
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
	forest.Version = "v-api-test"

	set := &model.ArtifactSet{Version: "v-api-test", Schema: schema, Scaler: scaler, Forest: forest}
	require.NoError(t, set.Save(dir))

	service := decision.NewService()
	require.NoError(t, service.Load(dir))

	Init(store, service)
	return store
}

func doRequest(handler echo.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

const predictionBody = `{
	"task_name": "matrix_multiplication",
	"network_type": "wifi",
	"device_model_name": "Pixel 7",
	"battery_level": 0.05,
	"is_charging": false,
	"latency_ms": 40.0,
	"matrix_size": 128,
	"server_cpu_load": 0.3,
	"server_memory_percent": 50.0
}`

func TestPing(t *testing.T) {
	setupHandlers(t)
	rec := doRequest(Ping, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "pong"}`, rec.Body.String())
}

func TestPredictWithoutModel(t *testing.T) {
	setupHandlers(t)
	rec := doRequest(PredictOffload, http.MethodPost, "/predict_offload", predictionBody)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp client.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ErrCodeModelUnavailable, resp.Error)
	require.Equal(t, "error", resp.Status)
}

func TestPredictValidation(t *testing.T) {
	setupHandlersWithModel(t)

	body := `{"task_name": "matrix_multiplication", "network_type": "wifi"}`
	rec := doRequest(PredictOffload, http.MethodPost, "/predict_offload", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp client.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ErrCodeInvalidRequest, resp.Error)
	require.Contains(t, resp.Message, "device_model_name")
}

func TestPredictMalformedBody(t *testing.T) {
	setupHandlersWithModel(t)
	rec := doRequest(PredictOffload, http.MethodPost, "/predict_offload", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictOffloadDecision(t *testing.T) {
	setupHandlersWithModel(t)

	rec := doRequest(PredictOffload, http.MethodPost, "/predict_offload", predictionBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp client.PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "remote", resp.Prediction)
	require.GreaterOrEqual(t, resp.Probability, 0.5)
	require.LessOrEqual(t, resp.Probability, 1.0)
}

const telemetryBody = `{
	"inputs": {
		"task_name": "matrix_multiplication",
		"network_type": "wifi",
		"battery_level": 0.82,
		"is_charging": 1,
		"latency_ms": 41.3,
		"matrix_size": 128,
		"device_manufacturer": "Google",
		"device_model_name": "Pixel 7",
		"os_name": "Android",
		"os_version": "14",
		"total_memory": 7824
	},
	"outputs": {
		"local_time_ms": 352.9,
		"remote_time_ms": 120.1
	}
}`

func TestLogBenchmark(t *testing.T) {
	store := setupHandlers(t)

	rec := doRequest(LogBenchmark, http.MethodPost, "/log-benchmark", telemetryBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp client.LogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	records, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "matrix_multiplication", records[0].TaskName)
	require.True(t, records[0].IsCharging)
	require.Equal(t, 128, records[0].MatrixSize)
	require.NotNil(t, records[0].LocalTimeMs)
	require.Equal(t, 120.1, *records[0].RemoteTimeMs)
	// server load is filled in when the client could not measure it
	require.NotNil(t, records[0].ServerCPULoad)
	require.NotNil(t, records[0].ServerMemoryPercent)
}

func TestLogBenchmarkRejectsIncompletePayload(t *testing.T) {
	store := setupHandlers(t)

	body := `{"inputs": {"task_name": "matrix_multiplication"}}`
	rec := doRequest(LogBenchmark, http.MethodPost, "/log-benchmark", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp client.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ErrCodeInvalidRequest, resp.Error)

	// a rejected write must leave no trace in the dataset
	_, err := store.ReadAll()
	require.ErrorIs(t, err, telemetry.ErrDatasetMissing)
}

func TestLogBenchmarkStorageFailure(t *testing.T) {
	// a path inside a directory that does not exist makes every append fail
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "missing", "data.csv"))
	Init(store, decision.NewService())

	rec := doRequest(LogBenchmark, http.MethodPost, "/log-benchmark", telemetryBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp client.LogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "Error saving log.", resp.Message)
}

func TestReloadModel(t *testing.T) {
	store := telemetry.NewStore(filepath.Join(t.TempDir(), "benchmark_data.csv"))
	service := decision.NewService()
	Init(store, service)

	dir := t.TempDir()
	schema := features.BuildSchema(map[string][]string{
		"task_name":         {"matrix_multiplication"},
		"network_type":      {"wifi", "cellular"},
		"device_model_name": {"Pixel 7"},
	})
	schema.Version = "v-reload"
	scaler := &features.Scaler{
		Version:  "v-reload",
		Features: append([]string{}, features.NumericFeatures...),
		Means:    make([]float64, len(features.NumericFeatures)),
		Scales:   make([]float64, len(features.NumericFeatures)),
	}
	for i := range scaler.Scales {
		scaler.Scales[i] = 1
	}
	x := [][]float64{make([]float64, len(schema.Columns)), make([]float64, len(schema.Columns))}
	x[1][0] = 1
	forest := model.TrainForest(x, []int{1, 0}, model.ForestParams{Trees: 5, MaxDepth: 2, Seed: 42})
	forest.Version = "v-reload"
	set := &model.ArtifactSet{Version: "v-reload", Schema: schema, Scaler: scaler, Forest: forest}
	require.NoError(t, set.Save(dir))

	viper.Set(config.ARTIFACTS_DIR, dir)
	t.Cleanup(viper.Reset)

	rec := doRequest(ReloadModel, http.MethodPost, "/reload-model", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, service.Loaded())
	require.Equal(t, "v-reload", service.Version())
}

func TestReloadModelWithoutArtifacts(t *testing.T) {
	setupHandlers(t)

	viper.Set(config.ARTIFACTS_DIR, t.TempDir())
	t.Cleanup(viper.Reset)

	rec := doRequest(ReloadModel, http.MethodPost, "/reload-model", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp client.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ErrCodeModelUnavailable, resp.Error)
}

func TestGetServerStatus(t *testing.T) {
	setupHandlersWithModel(t)

	rec := doRequest(GetServerStatus, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp client.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "offloadml server is running", resp.Status)
	require.Equal(t, "v-api-test", resp.ArtifactVersion)
}

func TestMatrixMultiply(t *testing.T) {
	setupHandlers(t)

	body := `{"matrixA": [[1, 2], [3, 4]], "matrixB": [[5, 6], [7, 8]]}`
	rec := doRequest(MatrixMultiply, http.MethodPost, "/task/matrix-multiply", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp client.MatrixMultiplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, [][]float64{{19, 22}, {43, 50}}, resp.Result)
}

func TestMatrixMultiplyDimensionMismatch(t *testing.T) {
	setupHandlers(t)

	body := `{"matrixA": [[1, 2, 3]], "matrixB": [[5, 6], [7, 8]]}`
	rec := doRequest(MatrixMultiply, http.MethodPost, "/task/matrix-multiply", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatrixMultiplyMissingOperand(t *testing.T) {
	setupHandlers(t)

	body := `{"matrixA": [[1, 2], [3, 4]]}`
	rec := doRequest(MatrixMultiply, http.MethodPost, "/task/matrix-multiply", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
