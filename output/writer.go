// Package output writes extracted records to disk as JSON
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"clerkconnect/record"
)

const (
	RecordsFile  = "records.json"
	ManifestFile = "manifest.json"

	runDirLayout = "2006-01-02T15-04-05Z-0700"
)

var safeFilenameReplaceRegex = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// Writer stores one JSON file per record plus the combined records.json
type Writer struct {
	dir string

	mu      sync.Mutex
	records []*record.Record
	names   map[string]bool
}

// NewWriter prepares the run directory. Without overwrite a new directory named
// after the current time is created inside dir, otherwise dir is emptied and reused.
func NewWriter(dir string, overwrite bool) (*Writer, error) {
	return newWriter(dir, overwrite, time.Now())
}

func newWriter(dir string, overwrite bool, now time.Time) (*Writer, error) {
	if overwrite {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	} else {
		dir = filepath.Join(dir, now.Format(runDirLayout))
	}

	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &Writer{dir: dir, names: make(map[string]bool)}, nil
}

// Dir is the directory records are written to
func (w *Writer) Dir() string {
	return w.dir
}

// Count is the number of records written so far
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Records returns the records written so far
func (w *Writer) Records() []*record.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*record.Record(nil), w.records...)
}

// Write stores rec as <file-number>.json and returns the file path
func (w *Writer) Write(rec *record.Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := w.uniqueName(FileName(rec))
	path := filepath.Join(w.dir, name+".json")
	if err := writeJSON(path, rec); err != nil {
		return "", err
	}
	w.records = append(w.records, rec)
	return path, nil
}

// uniqueName suffixes repeated names so two records never share a file.
// Suffixed names are tracked too, so a later record named like a suffix still gets its own file.
func (w *Writer) uniqueName(name string) string {
	candidate := name
	for n := 2; w.names[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", name, n)
	}
	w.names[candidate] = true
	return candidate
}

// Finish writes records.json and manifest.json
func (w *Writer) Finish(m Manifest) error {
	records := w.Records()
	if records == nil {
		records = []*record.Record{}
	}
	if err := writeJSON(filepath.Join(w.dir, RecordsFile), records); err != nil {
		return err
	}

	m.Records = len(records)
	if m.Finished.IsZero() {
		m.Finished = time.Now()
	}
	return writeJSON(filepath.Join(w.dir, ManifestFile), m)
}

// FileName is the base name used for a record file
func FileName(rec *record.Record) string {
	name := rec.FileNumber
	if name == "" {
		name = rec.Title
	}
	name = strings.Trim(safeFilenameReplaceRegex.ReplaceAllString(name, "-"), "-")
	if name == "" {
		return "record"
	}
	return name
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
