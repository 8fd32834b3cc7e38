package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("below-level messages leaked: %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Fatalf("expected warn and error in output, got: %q", out)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("bogus", &buf)

	log.Debugf("hidden")
	log.Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info message missing: %q", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Debugf("a")
	log.Infof("b")
	log.Warnf("c")
	log.Errorf("d")
	if child := log.With("k", "v"); child != nil {
		t.Fatal("nil logger should return nil child")
	}
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", &buf).With("source", "official")
	log.Infof("syncing")

	if out := buf.String(); !strings.Contains(out, "official") {
		t.Fatalf("child field missing from output: %q", out)
	}
}
