package core

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel selects the minimum severity the engine logger reports.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Finestra 🪟 ",
				})
				l.SetLevel(log.InfoLevel)
				singleton = &logger{l}
			})
	}
	return singleton
}

// SetLogLevel adjusts the singleton's minimum level. Safe to call at any
// point; the first call still wins the race to construct the logger.
func SetLogLevel(level LogLevel) {
	l := getLogger()
	switch level {
	case DebugLevel:
		l.SetLevel(log.DebugLevel)
	case InfoLevel:
		l.SetLevel(log.InfoLevel)
	case WarnLevel:
		l.SetLevel(log.WarnLevel)
	case ErrorLevel:
		l.SetLevel(log.ErrorLevel)
	}
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
