package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"property-analyser/models"
)

// JSONWriter writes the report document {"TopSuburbs": [...]} to a file.
type JSONWriter struct {
	path string
}

// NewJSONWriter creates a JSONWriter for path. The file is written on WriteReports.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// WriteReports replaces the file contents with the indented report document.
func (j *JSONWriter) WriteReports(reports []models.SuburbReport) error {
	if reports == nil {
		reports = []models.SuburbReport{}
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}

	f, err := os.Create(j.path)
	if err != nil {
		return fmt.Errorf("json: create file %q: %w", j.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models.ReportOutput{TopSuburbs: reports}); err != nil {
		return fmt.Errorf("json: encode report: %w", err)
	}
	return f.Close()
}
