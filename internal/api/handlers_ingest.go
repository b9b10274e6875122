package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/planchunk/internal/chunker"
	"github.com/dgallion1/planchunk/internal/extractor"
	"github.com/dgallion1/planchunk/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ingestRequest is the JSON body for URL-sourced ingestion.
type ingestRequest struct {
	SourceURL      string   `json:"source_url"`
	Filename       string   `json:"filename,omitempty"`
	TargetTokens   *int     `json:"target_chunk_size_tokens,omitempty"`
	MinTokens      *int     `json:"min_chunk_size_tokens,omitempty"`
	MaxTokens      *int     `json:"max_chunk_size_tokens,omitempty"`
	OverlapPercent *float64 `json:"overlap_percentage,omitempty"`
	EnableDedupe   *bool    `json:"enable_dedupe,omitempty"`
	ExtractImages  *bool    `json:"extract_images,omitempty"`
	ImageDPI       *int     `json:"image_dpi,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		s.handleIngestURL(w, r)
		return
	}
	s.handleIngestUpload(w, r)
}

// handleIngestUpload accepts a multipart upload with optional form overrides.
func (s *Server) handleIngestUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extractor.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxDocumentBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxDocumentBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxDocumentBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts := s.defaultOptions()
	if v := r.FormValue("target_chunk_size_tokens"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Chunk.TargetTokens = n
		}
	}
	if v := r.FormValue("overlap_percentage"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			opts.Chunk.OverlapPercent = f
		}
	}
	if v := r.FormValue("enable_dedupe"); v != "" {
		opts.EnableDedupe = v == "true"
	}
	if v := r.FormValue("extract_images"); v != "" {
		opts.ExtractImages = v == "true"
	}
	if v := r.FormValue("image_dpi"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.ImageDPI = n
		}
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		DocID:     pipeline.ContentHashHex(data)[:16],
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		Options:   opts,
	}
	job.SetFileData(data)

	s.submitAndRespond(w, job)
}

// handleIngestURL accepts a JSON body naming a signed source URL; the
// worker fetches the bytes itself.
func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SourceURL == "" {
		jsonError(w, "source_url is required", http.StatusBadRequest)
		return
	}
	filename := ""
	if req.Filename != "" {
		filename = sanitizeFilename(req.Filename)
		if !extractor.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
	}

	opts := s.defaultOptions()
	if req.TargetTokens != nil && *req.TargetTokens > 0 {
		opts.Chunk.TargetTokens = *req.TargetTokens
	}
	if req.MinTokens != nil && *req.MinTokens > 0 {
		opts.Chunk.MinTokens = *req.MinTokens
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		opts.Chunk.MaxTokens = *req.MaxTokens
	}
	if req.OverlapPercent != nil && *req.OverlapPercent >= 0 {
		opts.Chunk.OverlapPercent = *req.OverlapPercent
	}
	if req.EnableDedupe != nil {
		opts.EnableDedupe = *req.EnableDedupe
	}
	if req.ExtractImages != nil {
		opts.ExtractImages = *req.ExtractImages
	}
	if req.ImageDPI != nil && *req.ImageDPI > 0 {
		opts.ImageDPI = *req.ImageDPI
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		DocID:     uuid.NewString(),
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		SourceURL: req.SourceURL,
		CreatedAt: now,
		UpdatedAt: now,
		Options:   opts,
	}

	s.submitAndRespond(w, job)
}

func (s *Server) submitAndRespond(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocID,
		"status":      job.Status,
		"poll_url":    fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) defaultOptions() pipeline.Options {
	return pipeline.Options{
		Chunk: chunker.Config{
			TargetTokens:   s.cfg.TargetChunkTokens,
			MinTokens:      s.cfg.MinChunkTokens,
			MaxTokens:      s.cfg.MaxChunkTokens,
			OverlapPercent: s.cfg.OverlapPercent,
		},
		EnableDedupe:  s.cfg.EnableDedupe,
		ExtractImages: s.cfg.EnableImageExtraction,
		ImageDPI:      s.cfg.ImageDPI,
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
