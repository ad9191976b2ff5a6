package output

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clerkconnect/record"
)

// RecordWithPath is a record read back from disk
type RecordWithPath struct {
	record.Record
	Path string
}

// LoadFromDir reads every record file below dir. The combined records.json and
// the manifest are skipped so each record is returned once.
func LoadFromDir(dir string) ([]RecordWithPath, error) {
	var rs []RecordWithPath
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		if name := d.Name(); name == RecordsFile || name == ManifestFile {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var r record.Record
		if err := json.NewDecoder(f).Decode(&r); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		rs = append(rs, RecordWithPath{Record: r, Path: path})
		return nil
	})
	if err != nil {
		return rs, err
	}

	sort.Slice(rs, func(i, j int) bool { return rs[i].Path < rs[j].Path })
	return rs, nil
}
