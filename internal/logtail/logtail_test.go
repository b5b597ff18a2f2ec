package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %v, want no lines", got)
	}
}

func TestParseZerologLine(t *testing.T) {
	line := `{"level":"warn","component":"syncer","trigger":"timer","feeds_failed":2,"error":"all feeds failed","time":"2026-10-16T09:30:00Z","message":"sync tick degraded"}`
	got := Parse(line)

	if got.Level != "WARN" || got.Component != "syncer" || got.Message != "sync tick degraded" {
		t.Fatalf("Parse() = %#v", got)
	}
	if got.Error != "all feeds failed" {
		t.Fatalf("Error = %q", got.Error)
	}
	if got.Time.IsZero() || got.Time.Hour() != 9 {
		t.Fatalf("Time = %v, want 09:30 UTC", got.Time)
	}
	want := []Field{{"feeds_failed", "2"}, {"trigger", "timer"}}
	if !reflect.DeepEqual(got.Fields, want) {
		t.Fatalf("Fields = %#v, want %#v", got.Fields, want)
	}
}

func TestParsePlainLine(t *testing.T) {
	for _, line := range []string{"panic: boom", "{not json", ""} {
		got := Parse(line)
		if got.Message != line || got.Level != "" || got.Raw != line {
			t.Fatalf("Parse(%q) = %#v, want raw passthrough", line, got)
		}
	}
}

func TestParseLines(t *testing.T) {
	got := ParseLines([]string{`{"level":"info","message":"a"}`, "b"})
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Fatalf("ParseLines() = %#v", got)
	}
}
