package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHeader(t *testing.T) {
	first := Header("2024-03-01", false)
	if first != "2024-03-01\n============================\n" {
		t.Errorf("first header = %q", first)
	}

	next := Header("2024-03-02", true)
	if !strings.HasPrefix(next, "\n2024-03-02\n") {
		t.Errorf("continued header = %q, want leading blank line", next)
	}
}

func TestSeparatorWidth(t *testing.T) {
	if len(Separator) != 28 {
		t.Errorf("separator width = %d, want 28", len(Separator))
	}
}

func TestEntry(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.Local)
	if got := Entry(at, "buy milk"); got != "(09:05:07) buy milk\n" {
		t.Errorf("Entry = %q", got)
	}
}

func TestAppendCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")

	if err := Append(path, "a\n"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, "b\n", "c\n"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "a\nb\nc\n" {
		t.Errorf("contents = %q", data)
	}
}

func TestAppendMissingDirFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "notes.txt")
	if err := Append(path, "x\n"); err == nil {
		t.Error("expected error appending into a missing directory")
	}
}

func TestReadMissing(t *testing.T) {
	contents, found, err := Read(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if found || contents != "" {
		t.Errorf("Read missing = (%q, %t), want empty and not found", contents, found)
	}
}

func TestReadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	contents, found, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !found || contents != "hello\n" {
		t.Errorf("Read = (%q, %t)", contents, found)
	}
}
