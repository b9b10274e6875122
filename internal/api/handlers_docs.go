package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/planchunk/internal/plandoc"
	"github.com/dgallion1/planchunk/internal/planset"
	"github.com/dgallion1/planchunk/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists ingested documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	docs, err := s.orchestrator.Store().ListDocuments(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.DocumentRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleGetDocument returns the full ingestion summary, reassembled from
// the persisted rows.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	db := s.orchestrator.Store()

	doc, err := db.GetDocument(r.Context(), docID)
	if err != nil {
		docError(w, err)
		return
	}
	entries, err := db.SheetIndex(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load sheet index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	chunks, err := db.Chunks(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	previews := make([]plandoc.ChunkPreview, len(chunks))
	for i, c := range chunks {
		previews[i] = c.Preview()
	}
	summary := plandoc.Summary{
		DocumentID:       doc.ID,
		TotalPages:       doc.TotalPages,
		TotalChunks:      doc.TotalChunks,
		SheetIndexCount:  len(entries),
		ImagesExtracted:  doc.ImagesExtracted,
		AverageChunkSize: doc.AvgChunkTokens,
		SheetIndex:       entries,
		Groups:           planset.Group(entries),
		Chunks:           previews,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// handleSheetIndex returns the persisted sheet-index rows in page order.
func (s *Server) handleSheetIndex(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	db := s.orchestrator.Store()

	if _, err := db.GetDocument(r.Context(), docID); err != nil {
		docError(w, err)
		return
	}
	entries, err := db.SheetIndex(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load sheet index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []plandoc.SheetIndexEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sheet_index": entries})
}

// handleGroups projects the stored sheet index into plan-set groups.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	db := s.orchestrator.Store()

	if _, err := db.GetDocument(r.Context(), docID); err != nil {
		docError(w, err)
		return
	}
	entries, err := db.SheetIndex(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load sheet index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	groups := planset.Group(entries)
	if groups == nil {
		groups = []plandoc.PlanSetGroup{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"plan_set_groups": groups})
}

// handleGetChunk returns one full chunk by its index.
func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		jsonError(w, "invalid chunk index", http.StatusBadRequest)
		return
	}

	chunk, err := s.orchestrator.Store().Chunk(r.Context(), docID, index)
	if err != nil {
		docError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunk)
}

// handleDeleteDocument removes a document and all its rows.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.orchestrator.Store().DeleteDocument(r.Context(), docID); err != nil {
		docError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}

func docError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
