package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPathsSitNextToReport(t *testing.T) {
	if got := DefaultChecksumsPath(filepath.Join("out", "report.json")); got != filepath.Join("out", "checksums.sha256") {
		t.Fatalf("unexpected checksums path %s", got)
	}
	if got := DefaultRunLogPath(""); got != "cockpit.run.log" {
		t.Fatalf("unexpected run log path %s", got)
	}
}

func TestWriteAndVerifyChecksums(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "report.json")
	b := filepath.Join(dir, "report.html")
	if err := WriteJSON(a, map[string]int{"x": 1}); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(b, []byte("<html></html>")); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(dir, "checksums.sha256")
	if err := WriteChecksums(manifest, []string{b, "", a}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "  report.html") || !strings.HasSuffix(lines[1], "  report.json") {
		t.Fatalf("unexpected manifest:\n%s", raw)
	}

	bad, err := VerifyChecksums(manifest)
	if err != nil || len(bad) != 0 {
		t.Fatalf("expected clean verification, got %v %v", bad, err)
	}
	if err := os.WriteFile(b, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	bad, err = VerifyChecksums(manifest)
	if err != nil || len(bad) != 1 || bad[0] != "report.html" {
		t.Fatalf("expected report.html mismatch, got %v %v", bad, err)
	}
}

func TestVerifyChecksumsMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "checksums.sha256")
	if err := os.WriteFile(p, []byte("nothex report.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyChecksums(p); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected malformed line error, got %v", err)
	}
}

func TestRunLoggerWritesJSONLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "cockpit.run.log")
	l, err := NewRunLogger(p)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("run.start")
	l.Warn("run.report_html.error")
	l.Close()

	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["event"] != "run.report_html.error" || ev["level"] != "WARN" {
		t.Fatalf("unexpected event %v", ev)
	}
}
