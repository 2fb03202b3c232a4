package telemetry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordingExporter struct {
	lock    sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestOTelHook(t *testing.T) {
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)),
	)
	t.Cleanup(func() {
		// nolint:all
		provider.Shutdown(context.Background())
	})

	logger := log.New()
	logger.SetLevel(log.TraceLevel)
	logger.AddHook(newOTelHook(provider))

	logger.WithField("service", "93efxqt3Bnoj34hZfqAdPPn2CkbK6DbWK1LyYVGGwEvR").
		WithError(fmt.Errorf("asset frozen")).
		Warn("failed to transfer asset")

	require.Len(t, exporter.records, 1)
	record := exporter.records[0]
	require.Equal(t, "failed to transfer asset", record.Body().AsString())
	require.Equal(t, otellog.SeverityWarn, record.Severity())
	require.Equal(t, "warning", record.SeverityText())

	attrs := make(map[string]string)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	require.Equal(t, map[string]string{
		"service": "93efxqt3Bnoj34hZfqAdPPn2CkbK6DbWK1LyYVGGwEvR",
		"error":   "asset frozen",
	}, attrs)
}

func TestSeverity(t *testing.T) {
	fixtures := []struct {
		level    log.Level
		expected otellog.Severity
	}{
		{log.TraceLevel, otellog.SeverityTrace},
		{log.DebugLevel, otellog.SeverityDebug},
		{log.InfoLevel, otellog.SeverityInfo},
		{log.WarnLevel, otellog.SeverityWarn},
		{log.ErrorLevel, otellog.SeverityError},
		{log.FatalLevel, otellog.SeverityFatal},
		{log.PanicLevel, otellog.SeverityFatal4},
	}
	for _, f := range fixtures {
		t.Run(f.level.String(), func(t *testing.T) {
			require.Equal(t, f.expected, severity(f.level))
		})
	}
}
