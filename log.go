package pe

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

// SetLogger routes the parser's debug and trace output to l. A nil l silences
// the parser again. It is safe to call while images are being parsed.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discardLogger()
	}
	current.Store(&loggerRef{l})
}

func log() logrus.FieldLogger {
	return current.Load().FieldLogger
}
