// Package manifest describes result of the run: input job with processing
// state of every page, produced font files, warnings and final status.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pdfpages/common"
	"pdfpages/job"
)

// Manifest is written once at the end of the run. Job is embedded so its
// fields (pages included) are written at the top level, followed by job
// document fields unknown to this program.
type Manifest struct {
	*job.Job

	StartAt          time.Time `json:"start_at"`
	CreatedAt        time.Time `json:"created_at"`
	ProcessTime      string    `json:"process_time"`
	Version          string    `json:"version"`
	RunID            string    `json:"run_id"`
	ConverterVersion string    `json:"pdf2htmlex_version"`
	TmpFolderPath    string    `json:"tmp_folder_path"`
	Warnings         []Warning `json:"warnings"`
	FontFilePaths    []string  `json:"font_file_paths"`
	ExitCode         int       `json:"exit_code"`
	ErrorMessage     string    `json:"error_message,omitempty"`

	log *WarningLog
}

// New initializes manifest for the job. Every declared page is marked as not
// processed.
func New(j *job.Job, start time.Time, version, tmpFolder string) (*Manifest, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate run id: %w", err)
	}
	for _, p := range j.Pages {
		p.Processed = false
	}
	return &Manifest{
		Job:           j,
		StartAt:       start,
		Version:       version,
		RunID:         id.String(),
		TmpFolderPath: tmpFolder,
		Warnings:      []Warning{},
		FontFilePaths: []string{},
		log:           &WarningLog{},
	}, nil
}

// Log returns warning log to be shared by run stages.
func (m *Manifest) Log() *WarningLog {
	return m.log
}

// Finish records final status of the run.
func (m *Manifest) Finish(err error, now time.Time) {
	m.CreatedAt = now
	m.ProcessTime = fmt.Sprintf("%d ms", now.Sub(m.StartAt).Milliseconds())
	m.ExitCode = common.ExitCode(err)
	m.ErrorMessage = ""
	if err != nil {
		m.ErrorMessage = err.Error()
	}
}

// Write saves manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	if items := m.log.Items(); len(items) > 0 {
		m.Warnings = items
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("unable to marshal manifest: %w", err)
	}
	if data, err = job.AppendFields(data, m.Unknown()); err != nil {
		return fmt.Errorf("unable to marshal manifest: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("unable to format manifest: %w", err)
	}
	out.WriteByte('\n')
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create manifest folder: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write manifest: %w", err)
	}
	return nil
}
