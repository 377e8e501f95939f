package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "json", "info", "")

	logger.Info("vault unlocked", "user_id", "user-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "vault unlocked" {
		t.Errorf("msg = %v, want %q", record["msg"], "vault unlocked")
	}
	if record["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want %q", record["user_id"], "user-1")
	}
}

func TestBuildLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "text", "info", "")

	logger.Info("http request", "status", 200)

	out := buf.String()
	if !strings.Contains(out, "msg=") || !strings.Contains(out, "status=200") {
		t.Errorf("expected key=value text output, got %q", out)
	}
}

func TestBuildLogger_ServiceNameOnEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "json", "info", "application-resume")

	logger.Info("first")
	logger.Warn("second")

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		if record["service"] != "application-resume" {
			t.Errorf("record %q missing service attribute", line)
		}
	}
}

func TestBuildLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "json", "warn", "")

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record emitted despite warn level: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestBuildLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "json", "chatty", "")

	logger.Debug("suppressed")
	logger.Info("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("debug record emitted at default level: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("info record missing: %q", out)
	}
}

func TestBuildLogger_DebugLevelAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "json", "debug", "")

	logger.Debug("tracing")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if _, ok := record["source"]; !ok {
		t.Errorf("debug record has no source attribute: %q", buf.String())
	}
}
