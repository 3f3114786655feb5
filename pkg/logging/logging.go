package logging

import "fmt"

// Log levels accepted by LogLevelf
const (
	DebugLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the logging interface every component receives
type Logger interface {
	LogLevelf(level int, format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type LogFunc func(format string, args ...interface{})

// LogFuncs connects a Logger to a concrete backend
type LogFuncs struct {
	Debugf LogFunc
	Infof  LogFunc
	Warnf  LogFunc
	Errorf LogFunc
}

type logger struct {
	prefix string
	funcs  LogFuncs
}

// NewLogger prepends prefix to every message and dispatches to funcs.
// Missing funcs are silently dropped.
func NewLogger(prefix string, funcs LogFuncs) Logger {
	return &logger{
		prefix: prefix,
		funcs:  funcs,
	}
}

func (l *logger) LogLevelf(level int, format string, args ...interface{}) {
	switch level {
	case DebugLevel:
		l.Debugf(format, args...)
	case InfoLevel:
		l.Infof(format, args...)
	case WarnLevel:
		l.Warnf(format, args...)
	case ErrorLevel:
		l.Errorf(format, args...)
	default:
		l.Infof(fmt.Sprintf("(level %d) ", level)+format, args...)
	}
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.dispatch(l.funcs.Debugf, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.dispatch(l.funcs.Infof, format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	l.dispatch(l.funcs.Warnf, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.dispatch(l.funcs.Errorf, format, args...)
}

func (l *logger) dispatch(fn LogFunc, format string, args ...interface{}) {
	if fn == nil {
		return
	}
	fn(l.prefix+format, args...)
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (nopLogger) Debugf(format string, args ...interface{})               {}
func (nopLogger) Infof(format string, args ...interface{})                {}
func (nopLogger) Warnf(format string, args ...interface{})                {}
func (nopLogger) Errorf(format string, args ...interface{})               {}
