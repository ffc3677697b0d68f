package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	return entry
}

func TestTimer_FinishCarriesOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "route", Buildings([]string{"LIB", "SCI"}))
	took := timer.Finish(InfoLevel, "unreachable", Count(0))
	if took < 0 {
		t.Errorf("elapsed = %v, want >= 0", took)
	}

	entry := decodeEntry(t, &buf)
	if entry.Message != "route" || entry.Level != "INFO" {
		t.Errorf("entry = %s %q, want INFO route", entry.Level, entry.Message)
	}
	if entry.Fields["outcome"] != "unreachable" {
		t.Errorf("outcome = %v, want unreachable", entry.Fields["outcome"])
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("expected latency field")
	}
	if _, ok := entry.Fields["buildings"]; !ok {
		t.Error("expected start fields on the final entry")
	}
}

func TestTimer_FinishRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "route").Finish(DebugLevel, "ok")
	if buf.Len() != 0 {
		t.Errorf("debug outcome logged at info level: %s", buf.String())
	}

	StartTimer(logger, "route").Finish(WarnLevel, "ok")
	if entry := decodeEntry(t, &buf); entry.Level != "WARN" {
		t.Errorf("level = %s, want WARN", entry.Level)
	}
}

func TestTimer_EndAndEndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "reload", Source("file")).End()
	entry := decodeEntry(t, &buf)
	if entry.Fields["outcome"] != "ok" || entry.Fields["source"] != "file" {
		t.Errorf("fields = %v", entry.Fields)
	}

	buf.Reset()
	StartTimer(logger, "reload").EndError(errors.New("store offline"))
	entry = decodeEntry(t, &buf)
	if entry.Level != "ERROR" {
		t.Errorf("level = %s, want ERROR", entry.Level)
	}
	if entry.Fields["outcome"] != "error" || entry.Fields["error"] != "store offline" {
		t.Errorf("fields = %v", entry.Fields)
	}
}

func TestTimer_FieldsDoNotLeakAcrossFinishes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	start := make([]Field, 1, 4)
	start[0] = String("phase", "plan")
	timer := StartTimer(logger, "route", start...)
	timer.Finish(InfoLevel, "ok", Count(3))
	buf.Reset()
	timer.Finish(InfoLevel, "ok")

	if _, ok := decodeEntry(t, &buf).Fields["count"]; ok {
		t.Error("count from the first finish leaked into the second")
	}
}
