package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEntryFormat(t *testing.T) {
	e := Entry{
		At:         time.Date(2026, time.October, 14, 9, 5, 33, 0, time.UTC),
		FullName:   "Ivanov Sergey Petrovich",
		Department: "Central Districts Office",
		Reason:     "to the registry office,\nback by 14:30",
	}
	want := "[2026-10-14 09:05] Ivanov Sergey Petrovich | Central Districts Office | to the registry office, back by 14:30"
	if got := e.Format(); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestWriterAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "departures_log.txt")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Append(Entry{At: time.Now(), FullName: "A B C", Department: "D", Reason: "R"}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "] A B C | D | R") {
			t.Fatalf("malformed line %q", line)
		}
	}
}
