package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	Named("test").Info(context.Background(), "test message", String("k", "v"))
}

func TestInitWithFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatJSON, &buf); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Warn(context.Background(), "payload malformed",
		String("athlete", "a1"), Int("count", 2), Bool("dropped", true), Error(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if line["msg"] != "payload malformed" || line["athlete"] != "a1" || line["dropped"] != true {
		t.Fatalf("unexpected record: %v", line)
	}
	if _, ok := line["source"]; !ok {
		t.Fatalf("source field missing: %v", line)
	}
}

func TestInitWithFormatUnknown(t *testing.T) {
	if err := InitWithFormat("xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatText, &buf); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level not applied: %q", out)
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Named("x").Error(context.Background(), "dropped", Float64("v", 1))
}
