package client

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Info("client says hi")
	sink.Warn("client complains")

	out := buf.String()
	if !strings.Contains(out, `level=INFO msg="client says hi"`) {
		t.Errorf("missing info record:\n%s", out)
	}
	if !strings.Contains(out, `level=WARN msg="client complains"`) {
		t.Errorf("missing warn record:\n%s", out)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	multi := MultiSink{a, b}

	multi.Info("i")
	multi.Warn("w")

	for name, r := range map[string]*recordingSink{"a": a, "b": b} {
		if !slices.Equal(r.Infos(), []string{"i"}) || !slices.Equal(r.Warns(), []string{"w"}) {
			t.Errorf("sink %s got infos=%v warns=%v", name, r.Infos(), r.Warns())
		}
	}
}
