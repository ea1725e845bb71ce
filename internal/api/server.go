package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/offloadml/offloadml/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/decision"
	"github.com/offloadml/offloadml/internal/telemetry"
)

var telemetryStore *telemetry.Store
var decisionService *decision.Service

// Init wires the handlers to the shared telemetry store and decision service.
func Init(store *telemetry.Store, service *decision.Service) {
	telemetryStore = store
	decisionService = service
}

func StartAPIServer(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	e.GET("/ping", Ping)
	e.GET("/status", GetServerStatus)
	e.POST("/log-benchmark", LogBenchmark)
	e.POST("/predict_offload", PredictOffload)
	e.POST("/task/matrix-multiply", MatrixMultiply)
	e.POST("/reload-model", ReloadModel)

	if config.GetBool(config.METRICS_ENABLED, false) {
		e.GET("/metrics", func(c echo.Context) error {
			metrics.ScrapingHandler.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}

	// Start server
	bindIP := config.GetString(config.API_IP, "")
	portNumber := config.GetInt(config.API_PORT, 5000)
	e.HideBanner = true

	if err := e.Start(fmt.Sprintf("%s:%d", bindIP, portNumber)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal("shutting down the server")
	}
}

func RegisterTerminationHandler(e *echo.Echo) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		select {
		case sig := <-c:
			fmt.Printf("Got %s signal. Terminating...\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(ctx); err != nil {
				e.Logger.Fatal(err)
			}

			os.Exit(0)
		}
	}()
}

// Ping answers the lightweight probe the mobile framework uses to measure
// round-trip latency.
func Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "pong"})
}
