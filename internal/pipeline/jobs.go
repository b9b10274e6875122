package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/planchunk/internal/chunker"
	"github.com/dgallion1/planchunk/internal/plandoc"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusFetching    JobStatus = "fetching"
	StatusExtracting  JobStatus = "extracting"
	StatusClassifying JobStatus = "classifying"
	StatusChunking    JobStatus = "chunking"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusDupSkipped  JobStatus = "duplicate_skipped"
)

// Options are the per-job processing knobs. Ingest requests may override
// the server defaults; once the job is queued they never change.
type Options struct {
	Chunk         chunker.Config
	EnableDedupe  bool
	ExtractImages bool
	ImageDPI      int
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	DocID     string `json:"document_id"`
	Filename  string `json:"filename"`
	SourceURL string `json:"source_url,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Options Options `json:"-"`

	// Internal: not serialized.
	fileData []byte
	summary  *plandoc.Summary
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages  int      `json:"total_pages"`
	TotalChunks int      `json:"total_chunks"`
	Errors      []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records total page and chunk counts.
func (j *Job) SetCounts(pages, chunks int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if pages > 0 {
		j.Progress.TotalPages = pages
	}
	if chunks > 0 {
		j.Progress.TotalChunks = chunks
	}
	j.UpdatedAt = time.Now()
}

// SetContentHash records the document content hash.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetFilename updates the effective filename, used when a fetched source
// arrives without one.
func (j *Job) SetFilename(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Filename = name
}

// SetSummary records the completed ingestion result.
func (j *Job) SetSummary(s *plandoc.Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.summary = s
	j.UpdatedAt = time.Now()
}

// Summary returns the completed ingestion result, or nil while processing.
func (j *Job) Summary() *plandoc.Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summary
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string           `json:"job_id"`
	DocID     string           `json:"document_id"`
	Filename  string           `json:"filename"`
	SourceURL string           `json:"source_url,omitempty"`
	Status    JobStatus        `json:"status"`
	Phase     string           `json:"phase"`
	Progress  Progress         `json:"progress"`
	Summary   *plandoc.Summary `json:"summary,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Filename:  j.Filename,
		SourceURL: j.SourceURL,
		Status:    j.Status,
		Phase:     j.Phase,
		Summary:   j.summary,
		Progress: Progress{
			TotalPages:  j.Progress.TotalPages,
			TotalChunks: j.Progress.TotalChunks,
			Errors:      errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
