package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the printf-style logger handed to the downloader and scrapers.
type Logger struct {
	entry *logrus.Entry
}

func NewLogger(debug bool) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})

	l.SetLevel(logrus.InfoLevel)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}

	return &Logger{entry: logrus.NewEntry(l)}
}

// SetOutput redirects every logger derived from the same root.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l *Logger) DebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.entry.Debug(line(format, args))
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.entry.Info(line(format, args))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.entry.Warn(line(format, args))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.entry.Error(line(format, args))
}

func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
