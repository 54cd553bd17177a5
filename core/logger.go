package core

import (
	"io"

	"code.cloudfoundry.org/lager/v3"
)

// NewLogger returns a lager logger writing to w at the named level. An
// unknown level falls back to INFO.
func NewLogger(component, level string, w io.Writer) lager.Logger {
	logger := lager.NewLogger(component)

	l, err := lager.LogLevelFromString(level)
	if err != nil {
		l = lager.INFO
	}
	logger.RegisterSink(lager.NewWriterSink(w, l))

	if err != nil {
		logger.Info("unknown-log-level", lager.Data{"level": level, "using": "info"})
	}
	return logger
}
