package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	loadavg "github.com/mikoim/go-loadavg"

	"github.com/offloadml/offloadml/internal/client"
	"github.com/offloadml/offloadml/internal/metrics"
)

// currentServerLoad prefers the Prometheus retriever snapshot and falls back
// to a local reading when no retrieval has completed.
func currentServerLoad() (cpuLoad float64, memoryPercent float64) {
	if snapshot := metrics.GetServerLoad(); !snapshot.UpdatedAt.IsZero() {
		return snapshot.CPULoad, snapshot.MemoryPercent
	}

	if l, err := loadavg.Parse(); err == nil {
		cpuLoad = l.LoadAverage1
	}
	memoryPercent = readMemoryPercent()
	return cpuLoad, memoryPercent
}

// readMemoryPercent estimates memory usage from /proc/meminfo; 0 when the
// file is unreadable (non-Linux hosts).
func readMemoryPercent() float64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}

	var total, available float64
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = value
		case "MemAvailable:":
			available = value
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * (1 - available/total)
}

// GetServerStatus reports liveness and the server load the mobile framework
// cannot measure on its own.
func GetServerStatus(c echo.Context) error {
	cpuLoad, memoryPercent := currentServerLoad()
	return c.JSON(http.StatusOK, client.StatusResponse{
		Status:          "offloadml server is running",
		CPULoad:         cpuLoad,
		MemoryPercent:   memoryPercent,
		ArtifactVersion: decisionService.Version(),
	})
}
