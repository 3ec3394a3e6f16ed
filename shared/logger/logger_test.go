package logger_test

import (
	"bistro/config"
	"bistro/shared/logger"
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreGlobals(t *testing.T) {
	t.Helper()

	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	originalTimeFormat := zerolog.TimeFieldFormat

	t.Cleanup(func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
		zerolog.TimeFieldFormat = originalTimeFormat
	})
}

func TestInitLogger(t *testing.T) {
	restoreGlobals(t)

	logger.InitLogger()

	if zerolog.TimeFieldFormat != zerolog.TimeFormatUnix {
		t.Errorf("expected TimeFieldFormat to be %s, got %s", zerolog.TimeFormatUnix, zerolog.TimeFieldFormat)
	}

	if zerolog.GlobalLevel() != zerolog.TraceLevel {
		t.Errorf("expected global level to be %s, got %s", zerolog.TraceLevel, zerolog.GlobalLevel())
	}
}

func TestErrorWithStack(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	log.Logger = log.Output(&buf)

	logger.ErrorWithStack(errors.New("failed to seat reservation"))

	if buf.Len() == 0 {
		t.Fatal("expected error log output, got empty string")
	}

	if !bytes.Contains(buf.Bytes(), []byte("failed to seat reservation")) {
		t.Error("expected log output to contain the error message")
	}
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		logLevel      string
		expectedLevel zerolog.Level
	}{
		{logLevel: "trace", expectedLevel: zerolog.TraceLevel},
		{logLevel: "debug", expectedLevel: zerolog.DebugLevel},
		{logLevel: "info", expectedLevel: zerolog.InfoLevel},
		{logLevel: "warn", expectedLevel: zerolog.WarnLevel},
		{logLevel: "error", expectedLevel: zerolog.ErrorLevel},
		{logLevel: "fatal", expectedLevel: zerolog.FatalLevel},
		{logLevel: "panic", expectedLevel: zerolog.PanicLevel},
		{logLevel: "disabled", expectedLevel: zerolog.Disabled},
		// ParseLevel rejects unknown names and falls back to trace.
		{logLevel: "verbose", expectedLevel: zerolog.TraceLevel},
		// ParseLevel("") returns NoLevel with no error.
		{logLevel: "", expectedLevel: zerolog.NoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.logLevel, func(t *testing.T) {
			restoreGlobals(t)

			cfg := &config.Config{}
			cfg.Server.LogLevel = tt.logLevel

			logger.SetLogLevel(cfg)

			if zerolog.GlobalLevel() != tt.expectedLevel {
				t.Errorf("expected global level to be %s, got %s", tt.expectedLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestLoggerIntegration(t *testing.T) {
	restoreGlobals(t)

	logger.InitLogger()

	cfg := &config.Config{}
	cfg.Server.LogLevel = "info"
	logger.SetLogLevel(cfg)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected final global level to be %s, got %s", zerolog.InfoLevel, zerolog.GlobalLevel())
	}

	var buf bytes.Buffer
	log.Logger = log.Output(&buf)

	logger.ErrorWithStack(errors.New("table t-12 is already occupied"))

	if !bytes.Contains(buf.Bytes(), []byte("table t-12 is already occupied")) {
		t.Error("expected log output to contain the error message")
	}
}
