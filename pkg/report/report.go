// Package report writes the gallery page and the JSON summary of a run.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

const (
	IndexFile   = "index.html"
	SummaryFile = "summary.json"

	// TimestampLayout renders UTC times with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Capture is one successful screenshot as listed in the report.
type Capture struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// Summary is the machine-readable record of a run.
type Summary struct {
	Timestamp  string    `json:"timestamp"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	OutputDir  string    `json:"outputDir"`
	Captures   []Capture `json:"captures"`
}

// NewSummary builds the summary of a run that attempted total targets.
func NewSummary(at time.Time, total int, outputDir string, captures []Capture) Summary {
	if captures == nil {
		captures = []Capture{}
	}
	return Summary{
		Timestamp:  Timestamp(at),
		Total:      total,
		Successful: len(captures),
		OutputDir:  outputDir,
		Captures:   captures,
	}
}

// Timestamp formats t the way the report files do.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

//go:embed templates/index.html.tmpl
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html.tmpl"))

type indexData struct {
	Generated string
	Captures  []Capture
}

// RenderIndex renders the gallery page.
func RenderIndex(captures []Capture, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	data := indexData{Generated: Timestamp(generated), Captures: captures}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("error rendering index: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteIndex writes index.html into dir and returns its path.
func WriteIndex(dir string, captures []Capture, generated time.Time) (string, error) {
	html, err := RenderIndex(captures, generated)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, IndexFile)
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("error writing index: %w", err)
	}
	return path, nil
}

// WriteSummary writes summary.json into dir, replacing any previous one,
// and returns its path.
func WriteSummary(dir string, summary Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
