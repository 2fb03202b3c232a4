package telemetry

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// OTelHook forwards logrus entries as otel log records.
type OTelHook struct {
	logger otellog.Logger
}

// NewOTelHook must be added after InitOtelSDK, since it binds to the global
// logger provider.
func NewOTelHook() *OTelHook {
	return newOTelHook(global.GetLoggerProvider())
}

func newOTelHook(provider otellog.LoggerProvider) *OTelHook {
	return &OTelHook{provider.Logger(serviceName)}
}

func (h *OTelHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *OTelHook) Fire(entry *log.Entry) error {
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var record otellog.Record
	record.SetTimestamp(entry.Time)
	record.SetBody(otellog.StringValue(entry.Message))
	record.SetSeverity(severity(entry.Level))
	record.SetSeverityText(entry.Level.String())

	attrs := make([]otellog.KeyValue, 0, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			attrs = append(attrs, otellog.String(k, err.Error()))
			continue
		}
		attrs = append(attrs, otellog.String(k, fmt.Sprintf("%v", v)))
	}
	record.AddAttributes(attrs...)

	h.logger.Emit(ctx, record)
	return nil
}

func severity(level log.Level) otellog.Severity {
	switch level {
	case log.TraceLevel:
		return otellog.SeverityTrace
	case log.DebugLevel:
		return otellog.SeverityDebug
	case log.InfoLevel:
		return otellog.SeverityInfo
	case log.WarnLevel:
		return otellog.SeverityWarn
	case log.ErrorLevel:
		return otellog.SeverityError
	case log.FatalLevel:
		return otellog.SeverityFatal
	case log.PanicLevel:
		return otellog.SeverityFatal4
	default:
		return otellog.SeverityUndefined
	}
}
