package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelString(t *testing.T) {
	cases := []struct {
		level   Level
		str     string
		capital string
	}{
		{DebugLevel, "debug", "DEBUG"},
		{InfoLevel, "info", "INFO"},
		{SuccessLevel, "success", "SUCCESS"},
		{WarnLevel, "warn", "WARN"},
		{ErrorLevel, "error", "ERROR"},
		{FailLevel, "fail", "FAIL"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.str {
			t.Errorf("%d.String() = %q, want %q", tc.level, got, tc.str)
		}
		if got := tc.level.CapitalString(); got != tc.capital {
			t.Errorf("%d.CapitalString() = %q, want %q", tc.level, got, tc.capital)
		}
	}
}

func TestLevelToZapLevel(t *testing.T) {
	cases := []struct {
		level Level
		want  zapcore.Level
	}{
		{DebugLevel, zapcore.DebugLevel},
		{InfoLevel, zapcore.InfoLevel},
		// The custom levels ride on top of standard zap levels.
		{SuccessLevel, zapcore.InfoLevel},
		{WarnLevel, zapcore.WarnLevel},
		{ErrorLevel, zapcore.ErrorLevel},
		{FailLevel, zapcore.FatalLevel},
	}
	for _, tc := range cases {
		if got := tc.level.ToZapLevel(); got != tc.want {
			t.Errorf("%s.ToZapLevel() = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	opts := DefaultOptions()
	opts.ColorConsole = false

	log, err := NewLogger(opts)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	// Exercise each level method except Failf, which exits the process.
	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Successf("success %d", 3)
	log.Warnf("warn %d", 4)
	log.Errorf("error %d", 5)

	scoped := log.With("run_id", "test")
	scoped.Infof("scoped message")
}

func TestGetInitializesFallback(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
	// Repeated calls return the same instance.
	if Get() != Get() {
		t.Error("Get() is not stable")
	}
}
