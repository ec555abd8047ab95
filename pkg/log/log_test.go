package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DebugLevel,
		"info":  InfoLevel,
		"":      InfoLevel,
		"warn":  WarnLevel,
		"error": ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: want %v got %v", in, want, got)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(WarnLevel),
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("dropped")
	l.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info should be gated at warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(InfoLevel),
		WithFormatter(&JSONFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.With(Component("publish"), Str("post_id", "abc")).Info("committed", Int("n", 3))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["component"] != "publish" || obj["post_id"] != "abc" {
		t.Fatalf("missing carried fields: %v", obj)
	}
	if obj["msg"] != "committed" {
		t.Fatalf("msg: %v", obj["msg"])
	}
}
