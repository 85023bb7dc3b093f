package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func mustLevel(t *testing.T, s string) zapcore.Level {
	t.Helper()
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		t.Fatalf("parse level %q: %v", s, err)
	}
	return lvl
}
