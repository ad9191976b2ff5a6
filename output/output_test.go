package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clerkconnect/record"
)

func sampleRecords() []*record.Record {
	return []*record.Record{
		{
			URL:        "https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewrecord&cfnumber=20-0002-S64",
			FileNumber: "20-0002-S64",
			Title:      "Support SB 1159 (Hill) / Workers' Compensation",
			Fields:     []record.Field{{Title: "Council File", Value: "20-0002-S64"}},
			OnlineDocuments: []record.Document{
				{Title: "Resolution", Date: "05/22/2020", Href: "https://clkrep.lacity.org/onlinedocs/2020/20-0002-S64_reso_05-22-2020.pdf"},
			},
			Activities: []record.Activity{
				{Date: "05/22/2020", Activity: "Document(s) submitted", Attachments: []record.Attachment{{Title: "Report", Href: "https://clkrep.lacity.org/a.pdf"}}},
			},
		},
		{
			FileNumber: "19/1234",
			Title:      "Street vending",
		},
	}
}

func TestWriterWritesRecordsAndManifest(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	w, err := newWriter(t.TempDir(), false, now)
	require.NoError(t, err)
	require.Equal(t, "2024-03-01T10-30-00Z+0000", filepath.Base(w.Dir()))

	for _, r := range sampleRecords() {
		_, err := w.Write(r)
		require.NoError(t, err)
	}
	require.Equal(t, 2, w.Count())

	m := NewManifest("test")
	m.Results = 3
	m.Failed = 1
	require.NoError(t, w.Finish(m))

	for _, name := range []string{"20-0002-S64.json", "19-1234.json", RecordsFile, ManifestFile} {
		require.FileExists(t, filepath.Join(w.Dir(), name))
	}

	data, err := os.ReadFile(filepath.Join(w.Dir(), ManifestFile))
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "test", got.Query)
	require.Equal(t, 3, got.Results)
	require.Equal(t, 2, got.Records)
	require.Equal(t, 1, got.Failed)
	require.False(t, got.Finished.Before(got.Started))
	_, err = uuid.Parse(got.RunID)
	require.NoError(t, err)

	data, err = os.ReadFile(filepath.Join(w.Dir(), RecordsFile))
	require.NoError(t, err)
	var all []record.Record
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 2)
	require.Equal(t, "20-0002-S64", all[0].FileNumber)
}

func TestWriterOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0755))
	stale := filepath.Join(dir, "stale.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0644))

	w, err := NewWriter(dir, true)
	require.NoError(t, err)
	require.Equal(t, dir, w.Dir())
	require.NoFileExists(t, stale)
}

func TestWriterDuplicateNames(t *testing.T) {
	w, err := NewWriter(t.TempDir(), true)
	require.NoError(t, err)

	first, err := w.Write(&record.Record{FileNumber: "20-0002"})
	require.NoError(t, err)
	second, err := w.Write(&record.Record{FileNumber: "20-0002"})
	require.NoError(t, err)

	require.Equal(t, "20-0002.json", filepath.Base(first))
	require.Equal(t, "20-0002-2.json", filepath.Base(second))
}

func TestWriterSuffixNeverOverwritesRecord(t *testing.T) {
	w, err := NewWriter(t.TempDir(), true)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, number := range []string{"20-0002", "20-0002", "20-0002-2", "20-0002"} {
		path, err := w.Write(&record.Record{FileNumber: number})
		require.NoError(t, err)
		require.False(t, seen[path], "record written twice to %s", path)
		seen[path] = true
	}

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	got, err := LoadFromDir(w.Dir())
	require.NoError(t, err)
	require.Len(t, got, 4)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "20-0002-S64", FileName(&record.Record{FileNumber: "20-0002-S64"}))
	require.Equal(t, "Street-vending", FileName(&record.Record{Title: "Street vending!"}))
	require.Equal(t, "record", FileName(&record.Record{}))
}

func TestLoadFromDir(t *testing.T) {
	w, err := NewWriter(t.TempDir(), true)
	require.NoError(t, err)
	want := sampleRecords()
	for _, r := range want {
		_, err := w.Write(r)
		require.NoError(t, err)
	}
	require.NoError(t, w.Finish(NewManifest("test")))

	got, err := LoadFromDir(w.Dir())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// sorted by path: 19-1234.json before 20-0002-S64.json
	require.Equal(t, filepath.Join(w.Dir(), "19-1234.json"), got[0].Path)
	if diff := cmp.Diff(*want[0], got[1].Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleRecords())

	out := buf.String()
	require.Contains(t, out, "20-0002-S64")
	require.Contains(t, out, "19/1234")
	require.Contains(t, out, "Street vending")
	require.Contains(t, out, "TOTAL")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
