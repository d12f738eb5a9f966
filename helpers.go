package scheduler

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

func ternary[T any](condition bool, value1, value2 T) T {
	if condition {
		return value1
	}

	return value2
}

// Use as defer traceExit(logger).
func traceExit(logger *logrus.Entry) {
	if !logger.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	pc, _, line, ok := runtime.Caller(1) // Get the caller of this function
	if ok {
		logger.WithFields(
			logrus.Fields{
				"function": runtime.FuncForPC(pc).Name(),
				"line":     line,
			},
		).Trace("exiting function")
	}
}
