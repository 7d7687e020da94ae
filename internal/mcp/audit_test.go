package mcp

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}
}

func readAudit(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning audit log: %v", err)
	}
	return entries
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tie")
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Log(AuditEntry{
		Timestamp:  time.Now(),
		Tool:       "tie_analyze",
		RunID:      "r-1",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"include_series": "false"},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	logger.Log(AuditEntry{Tool: "after_close"})

	entries := readAudit(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Tool != "tie_analyze" || e.RunID != "r-1" || e.DurationMs != 42 || e.Status != "success" {
		t.Errorf("unexpected entry: %+v", e)
	}

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_Concurrent(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEntry{Tool: "tie_isa", Status: "success"})
		}()
	}
	wg.Wait()
	logger.Close()

	if got := len(readAudit(t, dir)); got != 50 {
		t.Errorf("got %d entries, want 50", got)
	}
}

func TestSanitizeToolParams(t *testing.T) {
	params := sanitizeToolParams(SequenceInput{
		Sequence:      "ACGTACGT",
		Path:          "/secret/genome.fa",
		IncludeSeries: true,
	})

	if params["include_series"] != "true" {
		t.Errorf("include_series = %q", params["include_series"])
	}
	if params["sequence"] != "(8 bytes)" {
		t.Errorf("sequence = %q, want size only", params["sequence"])
	}
	if params["path"] != "(set)" {
		t.Errorf("path = %q, want presence only", params["path"])
	}
	for k, v := range params {
		if strings.Contains(v, "ACGT") || strings.Contains(v, "secret") {
			t.Errorf("param %s leaks content: %q", k, v)
		}
	}

	empty := sanitizeToolParams(SequenceInput{})
	if _, ok := empty["sequence"]; ok {
		t.Error("absent sequence should not be logged")
	}
}
