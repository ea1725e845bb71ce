package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/offloadml/offloadml/internal/client"
	"github.com/offloadml/offloadml/internal/decision"
	"github.com/offloadml/offloadml/internal/features"
	"github.com/offloadml/offloadml/internal/metrics"
	"github.com/offloadml/offloadml/internal/tracing"
)

func validatePredictionRequest(req *client.PredictionRequest) string {
	switch {
	case req.TaskName == "":
		return "task_name is required"
	case req.NetworkType == "":
		return "network_type is required"
	case req.DeviceModelName == "":
		return "device_model_name is required"
	case req.BatteryLevel == nil:
		return "battery_level is required"
	case req.IsCharging == nil:
		return "is_charging is required"
	case req.LatencyMs == nil:
		return "latency_ms is required"
	case req.ServerCPULoad == nil:
		return "server_cpu_load is required"
	case req.ServerMemoryPercent == nil:
		return "server_memory_percent is required"
	}
	return ""
}

func rawPredictionFeatures(req *client.PredictionRequest) map[string]interface{} {
	raw := map[string]interface{}{
		"task_name":             req.TaskName,
		"network_type":          req.NetworkType,
		"device_model_name":     req.DeviceModelName,
		"battery_level":         *req.BatteryLevel,
		"is_charging":           *req.IsCharging,
		"latency_ms":            *req.LatencyMs,
		"server_cpu_load":       *req.ServerCPULoad,
		"server_memory_percent": *req.ServerMemoryPercent,
	}
	if req.MatrixSize != nil {
		raw["matrix_size"] = *req.MatrixSize
	}
	if req.ImageSizeKB != nil {
		raw["image_size_kb"] = *req.ImageSizeKB
	}
	return raw
}

func predictWithSpan(ctx context.Context, raw map[string]interface{}) (decision.Decision, error) {
	if tracing.DefaultTracer == nil {
		return decisionService.Predict(raw)
	}

	_, span := tracing.DefaultTracer.Start(ctx, "predict_offload")
	defer span.End()

	d, err := decisionService.Predict(raw)
	if err == nil {
		span.SetAttributes(attribute.String("decision", d.Label))
	}
	return d, err
}

// PredictOffload serves one offload decision for the flattened feature
// payload. While no artifact set is loaded the decision is never guessed; a
// distinct model_unavailable error is reported instead.
func PredictOffload(c echo.Context) error {
	var req client.PredictionRequest
	err := json.NewDecoder(c.Request().Body).Decode(&req)
	if err != nil && err != io.EOF {
		return invalidRequest(c, "could not parse prediction request")
	}

	if msg := validatePredictionRequest(&req); msg != "" {
		return invalidRequest(c, msg)
	}

	start := time.Now()
	d, err := predictWithSpan(c.Request().Context(), rawPredictionFeatures(&req))
	if err != nil {
		if errors.Is(err, decision.ErrModelUnavailable) {
			return errorJSON(c, http.StatusServiceUnavailable, ErrCodeModelUnavailable,
				"no trained model is loaded; train and publish an artifact set first")
		}
		if errors.Is(err, features.ErrMissingFeature) || errors.Is(err, features.ErrBadFeatureValue) {
			return errorJSON(c, http.StatusBadRequest, ErrCodeEncodingFailed, err.Error())
		}
		log.Printf("Prediction failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, ErrCodeEncodingFailed, "prediction failed")
	}
	metrics.ObservePredictLatency(time.Since(start).Seconds())
	metrics.AddDecision(d.Label)

	return c.JSON(http.StatusOK, client.PredictionResponse{
		Prediction:  d.Label,
		Probability: d.Probability,
		Status:      "success",
	})
}
