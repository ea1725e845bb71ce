package tracing

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/offloadml/offloadml/internal/config"
)

// DefaultTracer is nil when tracing is disabled; call sites check before use.
var DefaultTracer trace.Tracer = nil

var provider *sdktrace.TracerProvider

// Init sets up trace export to a JSON file when tracing.enabled is set.
func Init() error {
	if !config.GetBool(config.TRACING_ENABLED, false) {
		return nil
	}

	outfile := config.GetString(config.TRACING_OUTFILE, "")
	if outfile == "" {
		outfile = fmt.Sprintf("traces-%d.json", os.Getpid())
	}
	f, err := os.Create(outfile)
	if err != nil {
		return fmt.Errorf("could not create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(f),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return err
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", "offloadml")))
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	DefaultTracer = provider.Tracer("offloadml")

	log.Printf("Tracing enabled. Writing traces to %s\n", outfile)
	return nil
}

func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
