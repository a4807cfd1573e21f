package meetcall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	level := logrus.GetLevel()
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestConfigureLoggingToFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "meetcall.log")

	closer, err := ConfigureLogging(LoggingOptions{
		Level:      "debug",
		Format:     "json",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("call_id", "abc").Info("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"call_id":"abc"`)
	assert.Contains(t, string(data), "written to file")
}

func TestConfigureLoggingStdoutOnly(t *testing.T) {
	restoreLogger(t)
	closer, err := ConfigureLogging(LoggingOptions{Level: "warn", Format: "text"})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestConfigureLoggingRejectsBadOptions(t *testing.T) {
	restoreLogger(t)
	_, err := ConfigureLogging(LoggingOptions{Level: "chatty"})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = ConfigureLogging(LoggingOptions{Level: "info", Format: "yaml"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
