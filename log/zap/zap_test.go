package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/chunkcache"
)

func TestFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Error("orphaned", chunkcache.Fields{"hash": "abc", "err": errors.New("conn reset")})
	l.Debug("plain", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["hash"] != "abc" || ctx["err"] != "conn reset" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("level: %v", entries[0].Level)
	}
}
