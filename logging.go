package meetcall

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureLogging applies opts to the standard logrus logger. Entries go
// to stdout and, when opts.File is set, to a size-rotated file. The returned
// Closer flushes and closes that file.
func ConfigureLogging(opts LoggingOptions) (io.Closer, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	var formatter logrus.Formatter
	switch opts.Format {
	case "", "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidOptions, opts.Format)
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	if opts.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, file))

	logrus.WithFields(logrus.Fields{
		"function": "ConfigureLogging",
		"level":    level.String(),
		"file":     opts.File,
	}).Debug("Logging configured")

	return file, nil
}
