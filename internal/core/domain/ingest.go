package domain

import (
	"fmt"
	"strings"
	"time"
)

// UploadFile is one file of an upload batch.
type UploadFile struct {
	// FileName identifies the file within its collection.
	FileName string

	// Path is the client-side or on-disk path, kept as metadata only.
	Path string

	// MIMEType is the content type. Empty means detect from name and bytes.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte

	// ModifiedAt is the client-reported modification time, if any.
	ModifiedAt time.Time

	// Chunks are the derived chunks. Nil means derive during ingestion.
	Chunks []Chunk
}

// IngestOptions carries caller decisions for one ingestion call.
type IngestOptions struct {
	// Confirm lists file names the caller explicitly allows to overwrite.
	Confirm []string
}

// Confirms reports whether fileName was confirmed for overwrite.
func (o IngestOptions) Confirms(fileName string) bool {
	for _, name := range o.Confirm {
		if name == fileName {
			return true
		}
	}
	return false
}

// Outcome is the per-file result of reconciliation.
type Outcome string

// Ingestion outcomes.
const (
	OutcomeInserted          Outcome = "inserted"
	OutcomeUnchanged         Outcome = "unchanged"
	OutcomeNeedsConfirmation Outcome = "needs_confirmation"
	OutcomeUpdated           Outcome = "updated"
	OutcomeSkipped           Outcome = "skipped"
	OutcomeFailed            Outcome = "failed"
)

// FileResult is the outcome for a single file.
type FileResult struct {
	FileName string  `json:"file_name"`
	Outcome  Outcome `json:"outcome"`
	Chunks   int     `json:"chunks,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// IngestResult reports every file's outcome for one ingestion call.
type IngestResult struct {
	Files []FileResult

	// Conflict is set when at least one file needs confirmation.
	Conflict bool

	// FilesToUpdate names the files needing confirmation.
	FilesToUpdate []string
}

// Add records a file result and maintains the conflict summary.
func (r *IngestResult) Add(fr FileResult) {
	r.Files = append(r.Files, fr)
	if fr.Outcome == OutcomeNeedsConfirmation {
		r.Conflict = true
		r.FilesToUpdate = append(r.FilesToUpdate, fr.FileName)
	}
}

// Merge returns r with each file awaiting confirmation replaced by its
// outcome in confirmed. Files confirmed does not mention keep their
// original result.
func (r *IngestResult) Merge(confirmed *IngestResult) *IngestResult {
	byName := make(map[string]FileResult, len(confirmed.Files))
	for _, fr := range confirmed.Files {
		byName[fr.FileName] = fr
	}

	merged := &IngestResult{}
	for _, fr := range r.Files {
		if next, ok := byName[fr.FileName]; ok && fr.Outcome == OutcomeNeedsConfirmation {
			fr = next
			delete(byName, fr.FileName)
		}
		merged.Add(fr)
	}
	return merged
}

// Count returns how many files ended with the given outcome.
func (r *IngestResult) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (r *IngestResult) Failed() bool {
	return r.Count(OutcomeFailed) > 0
}

// Prompt is the human-readable confirmation question for a conflict.
func (r *IngestResult) Prompt() string {
	if !r.Conflict {
		return ""
	}
	return fmt.Sprintf("The following files already exist: %s. Do you want to update them?",
		strings.Join(r.FilesToUpdate, ", "))
}

// Message summarises the result in one line.
func (r *IngestResult) Message() string {
	if r.Conflict {
		return r.Prompt()
	}
	parts := []string{}
	if n := r.Count(OutcomeInserted); n > 0 {
		parts = append(parts, fmt.Sprintf("added %d", n))
	}
	if n := r.Count(OutcomeUpdated); n > 0 {
		parts = append(parts, fmt.Sprintf("updated %d", n))
	}
	if n := r.Count(OutcomeUnchanged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", n))
	}
	if n := r.Count(OutcomeSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := r.Count(OutcomeFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if len(parts) == 0 {
		return "No files processed"
	}
	return "Successfully processed files: " + strings.Join(parts, ", ")
}

// PendingUpload is a changed file staged until the caller confirms the overwrite.
type PendingUpload struct {
	Collection  string
	FileName    string
	Path        string
	MIMEType    string
	Fingerprint string
	Content     []byte
	StagedAt    time.Time
}

// UploadFile rebuilds the upload from the staged bytes.
func (p PendingUpload) UploadFile() UploadFile {
	return UploadFile{
		FileName:   p.FileName,
		Path:       p.Path,
		MIMEType:   p.MIMEType,
		Content:    p.Content,
		ModifiedAt: p.StagedAt,
	}
}
