package client

// PredictionRequest is the flattened feature payload the mobile framework
// sends to /predict_offload. Pointer fields distinguish "absent" from zero;
// MatrixSize and ImageSizeKB default to 0 when absent.
type PredictionRequest struct {
	TaskName            string   `json:"task_name"`
	NetworkType         string   `json:"network_type"`
	DeviceModelName     string   `json:"device_model_name"`
	BatteryLevel        *float64 `json:"battery_level"`
	IsCharging          *bool    `json:"is_charging"`
	LatencyMs           *float64 `json:"latency_ms"`
	MatrixSize          *float64 `json:"matrix_size"`
	ImageSizeKB         *float64 `json:"image_size_kb"`
	ServerCPULoad       *float64 `json:"server_cpu_load"`
	ServerMemoryPercent *float64 `json:"server_memory_percent"`
}

// PredictionResponse carries one offload decision. Probability is the
// classifier confidence in the predicted class: P(local) when Prediction is
// "local", P(remote) when it is "remote".
type PredictionResponse struct {
	Prediction  string  `json:"prediction"`
	Probability float64 `json:"probability"`
	Status      string  `json:"status"`
}

// ErrorResponse is returned for every failed API call, with a stable error
// code instead of a free-text exception message.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LogResponse acknowledges a telemetry write; Success is never true when the
// write failed.
type LogResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse reports liveness plus the current server load.
type StatusResponse struct {
	Status          string  `json:"status"`
	CPULoad         float64 `json:"cpu_load"`
	MemoryPercent   float64 `json:"memory_percent"`
	ArtifactVersion string  `json:"artifact_version,omitempty"`
}

type MatrixMultiplyRequest struct {
	MatrixA [][]float64 `json:"matrixA"`
	MatrixB [][]float64 `json:"matrixB"`
}

type MatrixMultiplyResponse struct {
	Result [][]float64 `json:"result"`
}
