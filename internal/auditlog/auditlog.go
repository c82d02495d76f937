// Package auditlog keeps a human-readable, append-only mirror of the
// departure ledger. One line per departure:
//
//	[YYYY-MM-DD HH:MM] full_name | department | reason
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is one audit line.
type Entry struct {
	At         time.Time
	FullName   string
	Department string
	Reason     string
}

// Format renders e in the fixed line format, without the trailing newline.
// Newlines inside fields are flattened so one departure stays one line.
func (e Entry) Format() string {
	return fmt.Sprintf("[%s] %s | %s | %s",
		e.At.Format("2006-01-02 15:04"),
		flatten(e.FullName),
		flatten(e.Department),
		flatten(e.Reason),
	)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Writer appends entries to a UTF-8 text file, syncing after every line.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter prepares a writer for path, creating parent directories.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit log dir: %w", err)
		}
	}
	return &Writer{path: path}, nil
}

// Path returns the file being written.
func (w *Writer) Path() string {
	return w.path
}

// Append writes e as a single line and fsyncs the file.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := f.WriteString(e.Format() + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync audit log: %w", err)
	}
	return f.Close()
}
