package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dusk-indust/xmigraph/internal/extract"
)

// ReportSuffix is appended to the run prefix to name the report file.
const ReportSuffix = ".report.json"

// RunReport is the top-level JSON run report.
type RunReport struct {
	Entry        string      `json:"entry"`
	RootGUID     string      `json:"rootGuid"`
	GeneratedAt  string      `json:"generatedAt"`
	Counts       ReportCount `json:"counts"`
	Files        []string    `json:"files"`
	ElementTags  []string    `json:"elementTags"`
	Duplicates   []string    `json:"duplicates,omitempty"`
	SkippedTags  []string    `json:"skippedTags,omitempty"`
	NonCanonical []string    `json:"nonCanonical,omitempty"`
	Skipped      []string    `json:"skipped,omitempty"`
	Tables       []string    `json:"tables,omitempty"`
}

// ReportCount holds collection sizes.
type ReportCount struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
	StructureRels int `json:"structureRels"`
	Stubs         int `json:"stubs"`
	GUIDs         int `json:"guids"`
}

// BuildReport summarizes r. ElementTags records which XMI tags the run
// understood, so a skipped tag can be told apart from an unknown one. tables lists the table files written for the run,
// if any.
func BuildReport(r *extract.Result, tables []string) *RunReport {
	return &RunReport{
		Entry:       r.Entry,
		RootGUID:    r.RootGUID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Counts: ReportCount{
			Nodes:         len(r.Nodes),
			Relationships: len(r.Relationships),
			StructureRels: len(r.StructureRels),
			Stubs:         len(r.Stubs),
			GUIDs:         len(r.RawGUIDs),
		},
		Files:        r.Files,
		ElementTags:  extract.ElementTags(),
		Duplicates:   r.Duplicates,
		SkippedTags:  r.SkippedTags,
		NonCanonical: r.NonCanonical,
		Skipped:      r.Skipped,
		Tables:       tables,
	}
}

// WriteReport writes the report for r to prefix+ReportSuffix and returns the
// path.
func WriteReport(prefix string, r *extract.Result, tables []string) (string, error) {
	data, err := json.MarshalIndent(BuildReport(r, tables), "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshal report: %w", err)
	}
	path := prefix + ReportSuffix
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
