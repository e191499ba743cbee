package app

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// InitTelemetry initializes the OpenTelemetry meter provider and returns a shutdown function.
func (app *application) InitTelemetry() (func(context.Context), error) {
	if app.config.otelCollectorUrl == "" {
		app.logger.Info("OpenTelemetry collector URL not set, skipping initialization")

		return func(context.Context) {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("movie-booking-engine"),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(app.config.env),
		),
	)
	if err != nil {
		return nil, errors.New("failed to create otel resource")
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(app.config.otelCollectorUrl),
	)
	if err != nil {
		return nil, errors.New("failed to create otel metric exporter")
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := meterProvider.Shutdown(shutdownCtx)
		if err != nil {
			app.logger.Error("failed to shutdown telemetry provider", "error", err)
		}
	}

	return shutdown, nil
}

type appMetrics struct {
	httpRequests      metric.Int64Counter
	bookingsReserved  metric.Int64Counter
	bookingsConfirmed metric.Int64Counter
	seatConflicts     metric.Int64Counter
}

func newAppMetrics() (*appMetrics, error) {
	meter := otel.Meter("movie-booking-engine")

	httpRequests, err := meter.Int64Counter("http.requests")
	if err != nil {
		return nil, err
	}

	bookingsReserved, err := meter.Int64Counter("bookings.reserved")
	if err != nil {
		return nil, err
	}

	bookingsConfirmed, err := meter.Int64Counter("bookings.confirmed")
	if err != nil {
		return nil, err
	}

	seatConflicts, err := meter.Int64Counter("bookings.seat_conflicts")
	if err != nil {
		return nil, err
	}

	return &appMetrics{
		httpRequests:      httpRequests,
		bookingsReserved:  bookingsReserved,
		bookingsConfirmed: bookingsConfirmed,
		seatConflicts:     seatConflicts,
	}, nil
}
