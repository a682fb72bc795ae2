package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type ingestResponse struct {
	Message       string              `json:"message"`
	FilesToUpdate []string            `json:"files_to_update,omitempty"`
	Results       []domain.FileResult `json:"results"`
}

type updateFilesRequest struct {
	Files []string `json:"files" validate:"required,min=1,dive,required"`
}

type pendingFile struct {
	FileName    string    `json:"file_name"`
	MIMEType    string    `json:"mime_type"`
	Fingerprint string    `json:"fingerprint"`
	Size        int       `json:"size"`
	StagedAt    time.Time `json:"staged_at"`
}

type pendingResponse struct {
	Pending []pendingFile `json:"pending"`
}

// handleUploadFiles ingests the multipart "files" parts. Files named in
// "confirm" form values are overwritten without a second round trip.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, fmt.Errorf("%w: read multipart upload: %w", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, fmt.Errorf("%w: no files in upload", domain.ErrInvalidInput))
		return
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			writeError(w, err)
			return
		}
		files = append(files, f)
	}

	opts := domain.IngestOptions{Confirm: r.MultipartForm.Value["confirm"]}
	result, err := s.ports.Ingest.Ingest(r.Context(), r.PathValue("name"), files, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeIngestResult(w, result)
}

// handleUpdateFiles confirms staged changes for the named files.
func (s *Server) handleUpdateFiles(w http.ResponseWriter, r *http.Request) {
	var req updateFilesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.ports.Ingest.ConfirmUpdates(r.Context(), r.PathValue("name"), req.Files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeIngestResult(w, result)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	staged, err := s.ports.Ingest.Pending(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := pendingResponse{Pending: make([]pendingFile, 0, len(staged))}
	for _, p := range staged {
		resp.Pending = append(resp.Pending, pendingFile{
			FileName:    p.FileName,
			MIMEType:    p.MIMEType,
			Fingerprint: p.Fingerprint,
			Size:        len(p.Content),
			StagedAt:    p.StagedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeIngestResult picks 409 when confirmation is needed, 207 when some
// file failed and 200 otherwise.
func writeIngestResult(w http.ResponseWriter, result *domain.IngestResult) {
	status := http.StatusOK
	switch {
	case result.Conflict:
		status = http.StatusConflict
	case result.Failed():
		status = http.StatusMultiStatus
	}

	results := result.Files
	if results == nil {
		results = []domain.FileResult{}
	}
	writeJSON(w, status, ingestResponse{
		Message:       result.Message(),
		FilesToUpdate: result.FilesToUpdate,
		Results:       results,
	})
}

// readUpload reads one multipart file. Browsers label most text files
// application/octet-stream, so that type is left for detection.
func readUpload(fh *multipart.FileHeader) (domain.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("%w: open %q: %w", domain.ErrInvalidInput, fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.UploadFile{}, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidInput, maxErr.Limit)
		}
		return domain.UploadFile{}, fmt.Errorf("%w: read %q: %w", domain.ErrInvalidInput, fh.Filename, err)
	}

	mimeType := ""
	if mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type")); err == nil && mt != "application/octet-stream" {
		mimeType = mt
	}

	return domain.UploadFile{
		FileName: fh.Filename,
		Path:     fh.Filename,
		MIMEType: mimeType,
		Content:  content,
	}, nil
}
