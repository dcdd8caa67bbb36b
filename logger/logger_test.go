package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=1") {
		t.Fatalf("warn missing: %s", out)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	l.Debug("priced", "price", 10.45)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %v: %s", err, buf.String())
	}
	if rec["msg"] != "priced" || rec["price"] != 10.45 {
		t.Fatalf("record = %v", rec)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pricer.log")
	l, err := New(Config{Output: "file", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "to file") {
		t.Fatalf("file content: %s", b)
	}
}

func TestNew_BadOutput(t *testing.T) {
	if _, err := New(Config{Output: "syslog"}); err == nil {
		t.Fatal("expected error for unknown output")
	}
	if _, err := New(Config{Output: "file"}); err == nil {
		t.Fatal("expected error for file output without path")
	}
}

func TestInit(t *testing.T) {
	if err := Init(Config{Level: "error"}); err != nil {
		t.Fatal(err)
	}
	if Get() != globalLogger {
		t.Fatal("Get did not return the installed logger")
	}
}
