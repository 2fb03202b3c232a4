package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "marketd"

// InitOtelSDK sets the global tracer, meter and logger providers, all
// exporting to the given collector. The returned function flushes and
// shuts them down.
func InitOtelSDK(
	ctx context.Context, otelCollectorURL string, pushInterval time.Duration,
) (func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	shutdownFuncs := make([]func(context.Context) error, 0, 3)

	shutdown := func(ctx context.Context) error {
		var errs error
		for _, fn := range shutdownFuncs {
			errs = errors.Join(errs, fn(ctx))
		}
		shutdownFuncs = nil
		return errs
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	traceExporter, err := otlptracehttp.New(
		ctx, otlptracehttp.WithEndpointURL(otelCollectorURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %s", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)

	metricExporter, err := otlpmetrichttp.New(
		ctx, otlpmetrichttp.WithEndpointURL(otelCollectorURL),
	)
	if err != nil {
		// nolint:all
		shutdown(ctx)
		return nil, fmt.Errorf("failed to create metric exporter: %s", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(pushInterval)),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(otelCollectorURL))
	if err != nil {
		// nolint:all
		shutdown(ctx)
		return nil, fmt.Errorf("failed to create log exporter: %s", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(loggerProvider)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)

	return shutdown, nil
}
