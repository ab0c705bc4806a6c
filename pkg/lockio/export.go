package lockio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// WriteJSON encodes l as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(l *Lock, w io.Writer) error {
	out := *l
	if out.Format == 0 {
		out.Format = Format
	}
	out.Gems = slices.Clone(l.Gems)
	sortGems(out.Gems)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes l to path. The file is written to a temporary name in
// the same directory first and renamed, so readers never see a partial lock.
func ExportJSON(l *Lock, path string) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".gemlock-*.json")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := WriteJSON(l, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
