package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		level Level
		str   string
	}{
		{"debug", LevelDebug, "DEBUG"},
		{"INFO", LevelInfo, "INFO"},
		{"warn", LevelWarn, "WARN"},
		{"warning", LevelWarn, "WARN"},
		{"Error", LevelError, "ERROR"},
		{"fatal", LevelFatal, "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.level {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.level)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	for _, input := range []string{"", "verbose", "trace"} {
		if got := ParseLevel(input); got != LevelInfo {
			t.Errorf("ParseLevel(%q) = %v, want LevelInfo", input, got)
		}
	}
	if got := Level(42).String(); got != "UNKNOWN" {
		t.Errorf("out-of-range level String() = %q", got)
	}
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer

	log := New(Config{
		Level:   LevelDebug,
		Format:  "json",
		Output:  &buf,
		AppName: "tracker",
	})

	log.Info("wallet subscribed",
		F("chat_id", int64(42)),
		F("wallet", "8p6SYRCZ1kVv1tSXMsTGRhs5Lyvkb1DczeCSivrBSHTa"))

	out := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"msg":"wallet subscribed"`,
		`"chat_id":42`,
		`"wallet":"8p6SYRCZ1kVv1tSXMsTGRhs5Lyvkb1DczeCSivrBSHTa"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("json output missing %s, got: %s", want, out)
		}
	}
}

func TestTextOutputReadable(t *testing.T) {
	var buf bytes.Buffer

	log := New(Config{
		Level:  LevelDebug,
		Format: "text",
		Output: &buf,
	})

	log.Warn("allowlist push failed", F("wallets", 3))

	out := buf.String()
	if !strings.Contains(out, "WARN") {
		t.Errorf("expected WARN marker, got: %s", out)
	}
	if !strings.Contains(out, "allowlist push failed") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "wallets=3") {
		t.Errorf("expected key=value field, got: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(Config{
		Level:  LevelError,
		Format: "json",
		Output: &buf,
	})

	log.Debug("suppressed")
	log.Info("suppressed")
	log.Warn("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("levels below error should be dropped, got: %s", buf.String())
	}

	log.Error("delivery failed")
	if !strings.Contains(buf.String(), "delivery failed") {
		t.Errorf("error should pass the filter, got: %s", buf.String())
	}
}

func TestWithAccumulatesFields(t *testing.T) {
	var buf bytes.Buffer

	log := New(Config{
		Level:  LevelDebug,
		Format: "json",
		Output: &buf,
	})

	child := log.With(F("component", "dispatcher")).With(F("chat_id", int64(7)))
	child.Info("notification sent")

	out := buf.String()
	if !strings.Contains(out, `"component":"dispatcher"`) {
		t.Errorf("base field missing, got: %s", out)
	}
	if !strings.Contains(out, `"chat_id":7`) {
		t.Errorf("chained field missing, got: %s", out)
	}

	// The parent must not inherit the child's fields.
	buf.Reset()
	log.Info("plain")
	if strings.Contains(buf.String(), "dispatcher") {
		t.Errorf("parent logger leaked child fields: %s", buf.String())
	}
}
