package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	Logger = nil

	tests := []struct {
		name          string
		logLevel      string
		isDevelopment bool
		expectedLevel logrus.Level
		expectJSON    bool
	}{
		{
			name:          "production defaults to info json",
			logLevel:      "",
			isDevelopment: false,
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "development defaults to debug text",
			logLevel:      "",
			isDevelopment: true,
			expectedLevel: logrus.DebugLevel,
			expectJSON:    false,
		},
		{
			name:          "explicit warn level",
			logLevel:      "warn",
			isDevelopment: false,
			expectedLevel: logrus.WarnLevel,
			expectJSON:    true,
		},
		{
			name:          "invalid level falls back to info",
			logLevel:      "loud",
			isDevelopment: true,
			expectedLevel: logrus.InfoLevel,
			expectJSON:    false,
		},
		{
			name:          "case insensitive level",
			logLevel:      "DEBUG",
			isDevelopment: false,
			expectedLevel: logrus.DebugLevel,
			expectJSON:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("LOG_LEVEL")
			os.Unsetenv("LOG_FORMAT")
			Logger = nil

			log := InitLogger(tt.logLevel, tt.isDevelopment)

			assert.Equal(t, tt.expectedLevel, log.GetLevel(), "log level mismatch")

			if tt.expectJSON {
				_, ok := log.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok, "expected JSON formatter")
			} else {
				_, ok := log.Formatter.(*logrus.TextFormatter)
				assert.True(t, ok, "expected text formatter")
			}
		})
	}
}

func TestLogOutput_StructuredFields(t *testing.T) {
	Logger = nil
	os.Unsetenv("LOG_FORMAT")

	log := InitLogger("debug", false)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithFields(logrus.Fields{
		"run_id":       "run-123",
		"mode":         "genetic",
		"lineup_count": 20,
	}).Info("optimization started")

	var entry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "output should be valid JSON")

	assert.Equal(t, "optimization started", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run-123", entry["run_id"])
	assert.Equal(t, "genetic", entry["mode"])
	assert.Equal(t, float64(20), entry["lineup_count"])
	assert.Contains(t, entry, "time")
}

func TestWithRunContext(t *testing.T) {
	Logger = nil
	os.Unsetenv("LOG_FORMAT")

	log := InitLogger("info", false)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	WithRunContext("run-456", "simulation", 10).Info("building lineups")

	var entry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err)

	assert.Equal(t, "run-456", entry["run_id"])
	assert.Equal(t, "simulation", entry["mode"])
	assert.Equal(t, float64(10), entry["lineup_count"])
}

func TestGetLogger_ReturnsSameInstance(t *testing.T) {
	Logger = nil

	log1 := GetLogger()
	assert.NotNil(t, log1)

	log2 := GetLogger()
	assert.Same(t, log1, log2)
}
