package telemetry

import (
	"fmt"
	"math"
	"strconv"
)

// Record is one row of the benchmark log: the runtime conditions of a task
// execution plus the measured local/remote timings. Records are immutable
// once appended; pointer fields are optional and stored as empty cells when
// absent. MatrixSize and ImageSizeKB default to 0 instead.
type Record struct {
	Timestamp            float64
	TaskName             string
	NetworkType          string
	WifiStrength         *int
	WifiFrequency        *float64
	BatteryLevel         float64
	IsCharging           bool
	LatencyMs            float64
	MatrixSize           int
	ImageSizeKB          float64
	ImageResolution      *string
	ImageComplexity      *string
	LocalTimeMs          *float64
	RemoteTimeMs         *float64
	DeviceManufacturer   string
	DeviceModelName      string
	OsName               string
	OsVersion            string
	TotalMemory          float64
	ServerCPULoad        *float64
	ServerMemoryPercent  *float64
	ServerComputeTimeMs  *float64
	ServerCoreCount      *int
	ServerCPUModel       *string
	ServerCPUFreqCurrent *float64
	ServerCPUFreqMax     *float64
}

// Columns is the persisted column list. Order matters: export and report
// tooling reads the dataset positionally.
var Columns = []string{
	"timestamp",
	"task_name",
	"network_type",
	"wifi_strength",
	"wifi_frequency",
	"battery_level",
	"is_charging",
	"latency_ms",
	"matrix_size",
	"image_size_kb",
	"image_resolution",
	"image_complexity",
	"local_time_ms",
	"remote_time_ms",
	"device_manufacturer",
	"device_model_name",
	"os_name",
	"os_version",
	"total_memory",
	"server_cpu_load",
	"server_memory_percent",
	"server_compute_time_ms",
	"server_core_count",
	"server_cpu_model",
	"server_cpu_freq_current",
	"server_cpu_freq_max",
}

// Round3 bounds precision drift across client platforms.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(Round3(x), 'f', -1, 64)
}

func formatOptFloat(x *float64) string {
	if x == nil {
		return ""
	}
	return formatFloat(*x)
}

func formatOptInt(x *int) string {
	if x == nil {
		return ""
	}
	return strconv.Itoa(*x)
}

func formatOptString(x *string) string {
	if x == nil {
		return ""
	}
	return *x
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// row serializes the record in Columns order.
func (r *Record) row() []string {
	return []string{
		formatFloat(r.Timestamp),
		r.TaskName,
		r.NetworkType,
		formatOptInt(r.WifiStrength),
		formatOptFloat(r.WifiFrequency),
		formatFloat(r.BatteryLevel),
		formatBool(r.IsCharging),
		formatFloat(r.LatencyMs),
		strconv.Itoa(r.MatrixSize),
		formatFloat(r.ImageSizeKB),
		formatOptString(r.ImageResolution),
		formatOptString(r.ImageComplexity),
		formatOptFloat(r.LocalTimeMs),
		formatOptFloat(r.RemoteTimeMs),
		r.DeviceManufacturer,
		r.DeviceModelName,
		r.OsName,
		r.OsVersion,
		formatFloat(r.TotalMemory),
		formatOptFloat(r.ServerCPULoad),
		formatOptFloat(r.ServerMemoryPercent),
		formatOptFloat(r.ServerComputeTimeMs),
		formatOptInt(r.ServerCoreCount),
		formatOptString(r.ServerCPUModel),
		formatOptFloat(r.ServerCPUFreqCurrent),
		formatOptFloat(r.ServerCPUFreqMax),
	}
}

func parseFloatCell(cell string, column string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %v", column, err)
	}
	return v, nil
}

func parseOptFloatCell(cell string, column string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := parseFloatCell(cell, column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptIntCell(cell string, column string) (*int, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		return nil, fmt.Errorf("column %s: %v", column, err)
	}
	return &v, nil
}

func parseOptStringCell(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}

func parseBoolCell(cell string) bool {
	return cell == "1" || cell == "true" || cell == "True"
}

// parseRow rebuilds a record from a persisted row in Columns order.
func parseRow(row []string) (Record, error) {
	var r Record
	if len(row) != len(Columns) {
		return r, fmt.Errorf("expected %d columns, found %d", len(Columns), len(row))
	}

	var err error
	if r.Timestamp, err = parseFloatCell(row[0], "timestamp"); err != nil {
		return r, err
	}
	r.TaskName = row[1]
	r.NetworkType = row[2]
	if r.WifiStrength, err = parseOptIntCell(row[3], "wifi_strength"); err != nil {
		return r, err
	}
	if r.WifiFrequency, err = parseOptFloatCell(row[4], "wifi_frequency"); err != nil {
		return r, err
	}
	if r.BatteryLevel, err = parseFloatCell(row[5], "battery_level"); err != nil {
		return r, err
	}
	r.IsCharging = parseBoolCell(row[6])
	if r.LatencyMs, err = parseFloatCell(row[7], "latency_ms"); err != nil {
		return r, err
	}
	if row[8] != "" {
		if r.MatrixSize, err = strconv.Atoi(row[8]); err != nil {
			return r, fmt.Errorf("column matrix_size: %v", err)
		}
	}
	if row[9] != "" {
		if r.ImageSizeKB, err = parseFloatCell(row[9], "image_size_kb"); err != nil {
			return r, err
		}
	}
	r.ImageResolution = parseOptStringCell(row[10])
	r.ImageComplexity = parseOptStringCell(row[11])
	if r.LocalTimeMs, err = parseOptFloatCell(row[12], "local_time_ms"); err != nil {
		return r, err
	}
	if r.RemoteTimeMs, err = parseOptFloatCell(row[13], "remote_time_ms"); err != nil {
		return r, err
	}
	r.DeviceManufacturer = row[14]
	r.DeviceModelName = row[15]
	r.OsName = row[16]
	r.OsVersion = row[17]
	if row[18] != "" {
		if r.TotalMemory, err = parseFloatCell(row[18], "total_memory"); err != nil {
			return r, err
		}
	}
	if r.ServerCPULoad, err = parseOptFloatCell(row[19], "server_cpu_load"); err != nil {
		return r, err
	}
	if r.ServerMemoryPercent, err = parseOptFloatCell(row[20], "server_memory_percent"); err != nil {
		return r, err
	}
	if r.ServerComputeTimeMs, err = parseOptFloatCell(row[21], "server_compute_time_ms"); err != nil {
		return r, err
	}
	if r.ServerCoreCount, err = parseOptIntCell(row[22], "server_core_count"); err != nil {
		return r, err
	}
	r.ServerCPUModel = parseOptStringCell(row[23])
	if r.ServerCPUFreqCurrent, err = parseOptFloatCell(row[24], "server_cpu_freq_current"); err != nil {
		return r, err
	}
	if r.ServerCPUFreqMax, err = parseOptFloatCell(row[25], "server_cpu_freq_max"); err != nil {
		return r, err
	}

	return r, nil
}
