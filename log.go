package gosharepoint

import (
	"context"
	"io"

	rlog "github.com/sirupsen/logrus"
)

type contextKey string

// SPRequestIDKey is the context key of the per-round request id.
const SPRequestIDKey contextKey = "LOG_REQUEST_ID"

// SPListIDKey is the context key of the list a round is issued against.
const SPListIDKey contextKey = "LOG_LIST_ID"

// logKeys are the context keys written to logs when logger.WithContext is used.
var logKeys = []contextKey{SPRequestIDKey, SPListIDKey}

// SPLogger SharePoint logger interface which abstracts away the underlying logging mechanism.
type SPLogger interface {
	rlog.Ext1FieldLogger
	SetLogLevel(level string) error
	GetLogLevel() string
	WithContext(ctx context.Context) *rlog.Entry
	SetOutput(output io.Writer)
}

type defaultLogger struct {
	*rlog.Logger
}

func (log *defaultLogger) SetLogLevel(level string) error {
	actual, err := rlog.ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger.SetLevel(actual)
	return nil
}

func (log *defaultLogger) GetLogLevel() string {
	return log.Logger.GetLevel().String()
}

func (log *defaultLogger) WithContext(ctx context.Context) *rlog.Entry {
	return log.Logger.WithFields(context2Fields(ctx))
}

// CreateDefaultLogger creates a new logger with default settings.
func CreateDefaultLogger() SPLogger {
	return &defaultLogger{Logger: rlog.New()}
}

var logger = CreateDefaultLogger()

func init() {
	_ = logger.SetLogLevel("error")
}

// SetLogger sets a new logger of SPLogger interface for gosharepoint.
func SetLogger(inLogger SPLogger) {
	logger = inLogger
}

// GetLogger returns the current logger.
func GetLogger() SPLogger {
	return logger
}

func context2Fields(ctx context.Context) rlog.Fields {
	fields := rlog.Fields{}
	if ctx == nil {
		return fields
	}
	for _, key := range logKeys {
		if ctx.Value(key) != nil {
			fields[string(key)] = ctx.Value(key)
		}
	}
	return fields
}
