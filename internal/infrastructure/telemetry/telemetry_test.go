package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Exporter: "stdout", Writer: &buf, ServiceName: "quotefeed-test"})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "feed.refresh")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "feed.refresh")
	assert.Contains(t, buf.String(), "quotefeed-test")
}

func TestSetupStdoutExportsMetrics(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Exporter: "stdout", Writer: &buf})
	require.NoError(t, err)

	counter, err := otel.Meter("test").Int64Counter("quotefeed.cycles")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// shutdown flushes the periodic reader
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "quotefeed.cycles")
}

func TestSetupNoneKeepsProvider(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	shutdown, err := Setup(context.Background(), Config{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.IsType(t, noop.TracerProvider{}, otel.GetTracerProvider())

	otel.SetMeterProvider(metricnoop.NewMeterProvider())
	_, err = Setup(context.Background(), Config{Exporter: "none"})
	require.NoError(t, err)
	assert.IsType(t, metricnoop.MeterProvider{}, otel.GetMeterProvider())
}

func TestSetupUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{Exporter: "zipkin"})
	assert.Error(t, err)
}
