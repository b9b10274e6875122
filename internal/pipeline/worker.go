package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgallion1/planchunk/internal/chunker"
	"github.com/dgallion1/planchunk/internal/classifier"
	"github.com/dgallion1/planchunk/internal/config"
	"github.com/dgallion1/planchunk/internal/extractor"
	"github.com/dgallion1/planchunk/internal/fetch"
	"github.com/dgallion1/planchunk/internal/plandoc"
	"github.com/dgallion1/planchunk/internal/planset"
	"github.com/dgallion1/planchunk/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	cfg     config.Config
	fetcher *fetch.Client
	db      *store.Store
	log     *slog.Logger
}

func NewWorker(cfg config.Config, fetcher *fetch.Client, db *store.Store, log *slog.Logger) *Worker {
	return &Worker{cfg: cfg, fetcher: fetcher, db: db, log: log}
}

// Process runs the full ingest pipeline for a job. A failure in any phase
// before storing leaves no persisted rows behind; cancellation mid-job
// behaves the same way.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document_id", job.DocID)

	// Phase 1: Fetch, when the source is a URL rather than uploaded bytes.
	data := job.FileData()
	if len(data) == 0 && job.SourceURL != "" {
		job.SetStatus(StatusFetching, "fetching")
		fetched, ext, err := w.fetcher.Fetch(ctx, job.SourceURL)
		if err != nil {
			log.Error("fetch failed", "url", job.SourceURL, "error", err)
			job.AddError(fmt.Sprintf("fetch: %s", err))
			job.SetStatus(StatusFailed, "fetching")
			return
		}
		data = fetched
		if job.Filename == "" {
			job.SetFilename(job.DocID + ext)
		}
		log.Info("fetched source", "bytes", len(data))
	}
	if len(data) == 0 {
		job.AddError("no document content")
		job.SetStatus(StatusFailed, "fetching")
		return
	}

	job.SetContentHash(ContentHashHex(data))

	// Phase 1.5: Dedup check against previously ingested documents.
	if job.Options.EnableDedupe {
		existing, err := w.db.FindByContentHash(ctx, job.ContentHash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existing != "" {
			log.Info("duplicate document, skipping", "existing_document_id", existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Extract pages.
	job.SetStatus(StatusExtracting, "extracting")
	result, err := extractor.Extract(ctx, data, job.Filename, extractor.Options{
		MaxBytes:      w.cfg.MaxDocumentBytes,
		PageWorkers:   w.cfg.PageWorkers,
		ExtractImages: job.Options.ExtractImages,
		ImageDir:      filepath.Join(w.cfg.DataDir, "images", job.DocID),
		DocID:         job.DocID,
	})
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	pages := result.Pages
	warnings := result.Warnings
	job.SetCounts(len(pages), 0)
	log.Info("extracted pages", "pages", len(pages), "warnings", len(warnings))

	if ctx.Err() != nil {
		job.AddError("canceled")
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 3: Classify every page into a sheet-index entry.
	job.SetStatus(StatusClassifying, "classifying")
	entries := make([]plandoc.SheetIndexEntry, len(pages))
	for i, pg := range pages {
		entries[i] = classifier.Classify(pg, len(pages))
	}
	groups := planset.Group(entries)

	// Phase 4: Pack pages into chunks and annotate them.
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunker.Pack(pages, entries, job.Options.Chunk)
	for i := range chunks {
		chunks[i] = chunker.Annotate(chunks[i], job.Options.EnableDedupe)
	}
	job.SetCounts(0, len(chunks))
	log.Info("packed chunks", "chunks", len(chunks))

	if ctx.Err() != nil {
		job.AddError("canceled")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	// Phase 5: Persist.
	job.SetStatus(StatusStoring, "storing")
	imagesExtracted := 0
	for _, pg := range pages {
		imagesExtracted += len(pg.ImageRefs)
	}
	doc := store.DocumentRecord{
		ID:              job.DocID,
		Filename:        job.Filename,
		ContentHash:     job.ContentHash,
		TotalPages:      len(pages),
		TotalChunks:     len(chunks),
		ImagesExtracted: imagesExtracted,
		AvgChunkTokens:  averageTokens(chunks),
		ImageDPI:        job.Options.ImageDPI,
		CreatedAt:       time.Now(),
	}
	if err := w.db.SaveDocument(ctx, doc); err != nil {
		log.Error("document save failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if err := w.db.SaveResult(ctx, job.DocID, entries, chunks); err != nil {
		log.Error("result save failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetSummary(buildSummary(doc, entries, groups, chunks, warnings))
	job.SetStatus(StatusCompleted, "done")
	log.Info("ingestion complete",
		"pages", len(pages), "sheets", len(entries), "chunks", len(chunks),
		"images", imagesExtracted, "warnings", len(warnings))
}

func averageTokens(chunks []plandoc.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += c.TokenCount
	}
	return total / len(chunks)
}

func buildSummary(doc store.DocumentRecord, entries []plandoc.SheetIndexEntry, groups []plandoc.PlanSetGroup, chunks []plandoc.Chunk, warnings []plandoc.Warning) *plandoc.Summary {
	previews := make([]plandoc.ChunkPreview, len(chunks))
	for i, c := range chunks {
		previews[i] = c.Preview()
	}
	return &plandoc.Summary{
		DocumentID:       doc.ID,
		TotalPages:       doc.TotalPages,
		TotalChunks:      doc.TotalChunks,
		SheetIndexCount:  len(entries),
		ImagesExtracted:  doc.ImagesExtracted,
		AverageChunkSize: doc.AvgChunkTokens,
		SheetIndex:       entries,
		Groups:           groups,
		Chunks:           previews,
		Warnings:         warnings,
	}
}
