package md

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type loggerRef struct {
	logrus.FieldLogger
}

var current atomic.Pointer[loggerRef]

func init() {
	SetLogger(nil)
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger routes lookup tracing to l. A nil l silences it again. It is safe
// to call while lookups are running.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discardLogger()
	}
	current.Store(&loggerRef{l})
}

func log() logrus.FieldLogger {
	return current.Load().FieldLogger
}
