// Package logger configures the process-wide logrus logger: JSON or text
// formatting, level selection, and size-based file rotation.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/saptarishi/jyotishai/internal/config"
)

// Fields aliases logrus.Fields.
type Fields = logrus.Fields

// Setup applies the logging configuration to the standard logrus logger and
// returns it. Call once at startup; packages then log through
// logrus.StandardLogger() or entries derived from it.
func Setup(cfg config.LoggingConfig) (*logrus.Logger, error) {
	log := logrus.StandardLogger()

	lvl, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("logger: invalid level %q", cfg.Level)
	}
	log.SetLevel(lvl)
	log.SetReportCaller(true)

	caller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: caller,
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: caller,
		})
	default:
		return nil, fmt.Errorf("logger: invalid format %q", cfg.Format)
	}

	switch cfg.File {
	case "", "stdout":
		log.SetOutput(os.Stdout)
	case "stderr":
		log.SetOutput(os.Stderr)
	default:
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	return log, nil
}

// Component returns an entry tagged with a component name.
func Component(name string) *logrus.Entry {
	return logrus.StandardLogger().WithField("component", name)
}
