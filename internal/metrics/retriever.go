package metrics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/common/model"

	"github.com/offloadml/offloadml/internal/config"

	promapi "github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
)

// queries for the node exporter running next to the compute server
const cpuLoadQuery = "node_load1"
const memoryQuery = "100 * (1 - (node_memory_MemAvailable_bytes / node_memory_MemTotal_bytes))"

// ServerLoad is the latest server-side load snapshot, used to enrich
// telemetry rows whose client sent placeholder values and to answer /status.
type ServerLoad struct {
	CPULoad       float64
	MemoryPercent float64
	UpdatedAt     time.Time
}

var loadMutex sync.RWMutex
var retrievedLoad ServerLoad

func executeQuery(query string, api v1.API, ctx context.Context) (model.Vector, error) {
	result, warnings, err := api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed query: %v", err)
	}

	if len(warnings) > 0 {
		log.Printf("received warnings in the execution: %v", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("could not convert the result of the query: %v", result)
	}

	return vector, nil
}

func retrieveSingleValue(query string, api v1.API, ctx context.Context) (float64, error) {
	vector, err := executeQuery(query, api, ctx)
	if err != nil {
		return 0.0, err
	}
	if len(vector) != 1 {
		return 0.0, fmt.Errorf("expected 1 result; found %d", len(vector))
	}
	return float64(vector[0].Value), nil
}

// ServerLoadRetriever periodically refreshes the server load snapshot from
// Prometheus.
func ServerLoadRetriever() {
	prometheusHost := config.GetString(config.METRICS_PROMETHEUS_HOST, "127.0.0.1")
	prometheusPort := config.GetInt(config.METRICS_PROMETHEUS_PORT, 9090)
	client, err := promapi.NewClient(promapi.Config{
		Address: fmt.Sprintf("http://%s:%d", prometheusHost, prometheusPort),
	})
	if err != nil {
		log.Printf("Error in Prometheus client creation: %v\n", err)
		return
	}

	api := v1.NewAPI(client)
	ctx := context.Background()

	ticker := time.NewTicker(time.Duration(config.GetInt(config.METRICS_RETRIEVER_INTERVAL, 60)) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cpuLoad, err := retrieveSingleValue(cpuLoadQuery, api, ctx)
			if err != nil {
				log.Printf("Error retrieving server CPU load: %v", err)
				continue
			}
			memoryPercent, err := retrieveSingleValue(memoryQuery, api, ctx)
			if err != nil {
				log.Printf("Error retrieving server memory usage: %v", err)
				continue
			}

			loadMutex.Lock()
			retrievedLoad = ServerLoad{
				CPULoad:       cpuLoad,
				MemoryPercent: memoryPercent,
				UpdatedAt:     time.Now(),
			}
			loadMutex.Unlock()
		}
	}
}

// GetServerLoad returns the latest snapshot; UpdatedAt is zero while no
// retrieval has completed yet.
func GetServerLoad() ServerLoad {
	loadMutex.RLock()
	defer loadMutex.RUnlock()
	return retrievedLoad
}
