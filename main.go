package main

import (
	"log"
	"os"

	"github.com/labstack/echo/v4"
	_ "go.uber.org/automaxprocs"

	"github.com/offloadml/offloadml/internal/api"
	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/decision"
	"github.com/offloadml/offloadml/internal/metrics"
	"github.com/offloadml/offloadml/internal/telemetry"
	"github.com/offloadml/offloadml/internal/tracing"
)

func main() {
	configFileName := ""
	if len(os.Args) > 1 {
		configFileName = os.Args[1]
	}
	config.ReadConfiguration(configFileName)

	metrics.Init()
	if err := tracing.Init(); err != nil {
		log.Printf("Could not initialize tracing: %v\n", err)
	}

	store := telemetry.NewStore(config.GetString(config.STORAGE_DATA_FILE, "benchmark_data.csv"))

	service := decision.NewService()
	artifactsDir := config.GetString(config.ARTIFACTS_DIR, "artifacts")
	if err := service.Load(artifactsDir); err != nil {
		log.Printf("No artifact set loaded: %v\n", err)
		log.Println("Predictions are unavailable until a training run publishes one.")
	} else {
		log.Printf("Loaded artifact set %s\n", service.Version())
	}

	api.Init(store, service)

	e := echo.New()
	e.HideBanner = true

	// Register a signal handler to cleanup things on termination
	api.RegisterTerminationHandler(e)

	api.StartAPIServer(e)
}
