package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields aliases logrus.Fields so callers don't import logrus directly.
type Fields = logrus.Fields

// Entry aliases logrus.Entry for the same reason.
type Entry = logrus.Entry

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return l
}

// FileConfig describes optional rotated file output.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Configure applies a level and optional file output. When a file path is
// set, logs go to both stderr and the rotated file.
func Configure(level string, file FileConfig) {
	if level != "" {
		if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			std.SetLevel(lvl)
		}
	}
	if file.Path != "" {
		rotated := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   true,
		}
		std.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
}

// WithComponent returns an entry tagged with the owning component.
func WithComponent(component string) *Entry {
	return std.WithField("component", component)
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields Fields) *Entry {
	return std.WithFields(fields)
}

// WithError returns an entry carrying an error field.
func WithError(err error) *Entry {
	return std.WithError(err)
}
