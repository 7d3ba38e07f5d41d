package annotator

import (
	"fmt"
	"os"
	"path/filepath"
)

// RecordWriter appends annotation records to per-domain, per-model files.
//
// Each Append opens, writes and closes the file, so a crashed run leaves every
// completed record on disk. Files are never truncated.
type RecordWriter struct {
	dir string
}

// NewRecordWriter creates a writer rooted at dir.
func NewRecordWriter(dir string) *RecordWriter {
	return &RecordWriter{dir: dir}
}

// RecordPath returns <outputDir>/<domain>_<modelName>.txt.
func RecordPath(outputDir, domain, modelName string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.txt", domain, modelName))
}

// EnsureDir creates the output directory if it does not exist.
func (w *RecordWriter) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}
	return nil
}

// Append writes one "<item>\t<annotation>" line.
func (w *RecordWriter) Append(domain, modelName, item string, ann Annotation) error {
	path := RecordPath(w.dir, domain, modelName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open record file %s: %w", path, err)
	}

	if _, err := fmt.Fprintf(f, "%s\t%s\n", item, ann); err != nil {
		f.Close()
		return fmt.Errorf("failed to append record to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close record file %s: %w", path, err)
	}
	return nil
}
