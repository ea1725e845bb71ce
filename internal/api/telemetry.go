package api

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/labstack/echo/v4"

	"github.com/offloadml/offloadml/internal/client"
	"github.com/offloadml/offloadml/internal/metrics"
	"github.com/offloadml/offloadml/internal/telemetry"
)

// requiredInputs must all be present for a telemetry write to be accepted.
var requiredInputFloats = []string{"battery_level", "latency_ms", "total_memory"}
var requiredInputStrings = []string{"task_name", "network_type", "device_manufacturer", "device_model_name", "os_name", "os_version"}

func optFloat(body []byte, keys ...string) *float64 {
	v, err := jsonparser.GetFloat(body, keys...)
	if err != nil {
		return nil
	}
	return &v
}

func optInt(body []byte, keys ...string) *int {
	v, err := jsonparser.GetInt(body, keys...)
	if err != nil {
		return nil
	}
	i := int(v)
	return &i
}

func optString(body []byte, keys ...string) *string {
	v, err := jsonparser.GetString(body, keys...)
	if err != nil {
		return nil
	}
	return &v
}

// truthy accepts both JSON booleans and the 0/1 integers the mobile
// framework sends.
func truthy(body []byte, keys ...string) (bool, error) {
	if v, err := jsonparser.GetBoolean(body, keys...); err == nil {
		return v, nil
	}
	v, err := jsonparser.GetFloat(body, keys...)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// parseTelemetryPayload flattens the nested {inputs, outputs} payload into a
// record, validating required fields before anything is stored.
func parseTelemetryPayload(body []byte) (*telemetry.Record, error) {
	for _, field := range requiredInputStrings {
		if _, err := jsonparser.GetString(body, "inputs", field); err != nil {
			return nil, fmt.Errorf("missing or malformed input field %q", field)
		}
	}
	for _, field := range requiredInputFloats {
		if _, err := jsonparser.GetFloat(body, "inputs", field); err != nil {
			return nil, fmt.Errorf("missing or malformed input field %q", field)
		}
	}
	isCharging, err := truthy(body, "inputs", "is_charging")
	if err != nil {
		return nil, fmt.Errorf("missing or malformed input field %q", "is_charging")
	}

	r := &telemetry.Record{
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
		IsCharging: isCharging,
	}
	r.TaskName, _ = jsonparser.GetString(body, "inputs", "task_name")
	r.NetworkType, _ = jsonparser.GetString(body, "inputs", "network_type")
	r.BatteryLevel, _ = jsonparser.GetFloat(body, "inputs", "battery_level")
	r.LatencyMs, _ = jsonparser.GetFloat(body, "inputs", "latency_ms")
	r.DeviceManufacturer, _ = jsonparser.GetString(body, "inputs", "device_manufacturer")
	r.DeviceModelName, _ = jsonparser.GetString(body, "inputs", "device_model_name")
	r.OsName, _ = jsonparser.GetString(body, "inputs", "os_name")
	r.OsVersion, _ = jsonparser.GetString(body, "inputs", "os_version")
	r.TotalMemory, _ = jsonparser.GetFloat(body, "inputs", "total_memory")

	r.WifiStrength = optInt(body, "inputs", "wifi_strength")
	r.WifiFrequency = optFloat(body, "inputs", "wifi_frequency")
	if v := optInt(body, "inputs", "matrix_size"); v != nil {
		r.MatrixSize = *v
	}
	if v := optFloat(body, "inputs", "image_size_kb"); v != nil {
		r.ImageSizeKB = *v
	}
	r.ImageResolution = optString(body, "inputs", "image_resolution")
	r.ImageComplexity = optString(body, "inputs", "image_complexity")

	r.LocalTimeMs = optFloat(body, "outputs", "local_time_ms")
	r.RemoteTimeMs = optFloat(body, "outputs", "remote_time_ms")
	r.ServerCPULoad = optFloat(body, "outputs", "server_cpu_load")
	r.ServerMemoryPercent = optFloat(body, "outputs", "server_memory_percent")
	r.ServerComputeTimeMs = optFloat(body, "outputs", "server_compute_time_ms")
	r.ServerCoreCount = optInt(body, "outputs", "server_core_count")
	r.ServerCPUModel = optString(body, "outputs", "server_cpu_model")
	r.ServerCPUFreqCurrent = optFloat(body, "outputs", "server_cpu_freq_current")
	r.ServerCPUFreqMax = optFloat(body, "outputs", "server_cpu_freq_max")

	return r, nil
}

// LogBenchmark handles a telemetry write. Validation failures reject the
// request before any storage side effect; a storage failure is acknowledged
// explicitly, never as a silent success.
func LogBenchmark(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	record, err := parseTelemetryPayload(body)
	if err != nil {
		return invalidRequest(c, err.Error())
	}

	// mobile clients cannot measure server load; fill in our own numbers
	// when the payload carries none
	if record.ServerCPULoad == nil || record.ServerMemoryPercent == nil {
		cpuLoad, memoryPercent := currentServerLoad()
		if record.ServerCPULoad == nil {
			record.ServerCPULoad = &cpuLoad
		}
		if record.ServerMemoryPercent == nil {
			record.ServerMemoryPercent = &memoryPercent
		}
	}

	if err := telemetryStore.Append(record); err != nil {
		log.Printf("Error logging benchmark: %v", err)
		metrics.AddTelemetryWrite(false)
		return c.JSON(http.StatusInternalServerError, client.LogResponse{Success: false, Message: "Error saving log."})
	}

	metrics.AddTelemetryWrite(true)
	return c.JSON(http.StatusOK, client.LogResponse{Success: true, Message: "Log saved."})
}
