package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/cacheflow"
)

func TestLoggerRespectsLevelAndOrdersFields(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("hidden", cacheflow.Fields{"k": "v"})
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered: %q", buf.String())
	}

	l.Warn("set rejected by provider", cacheflow.Fields{"method": "SetCacheOnly", "key": "a|b|c"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("level missing: %q", out)
	}
	ki, mi := strings.Index(out, "key="), strings.Index(out, "method=")
	if ki < 0 || mi < 0 || ki > mi {
		t.Fatalf("fields not sorted: %q", out)
	}
}
