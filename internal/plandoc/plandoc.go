package plandoc

// Page is one extracted page of a plan document. Pages are created by the
// extractor and never mutated afterwards.
type Page struct {
	Number    int      `json:"page_number"` // 1-indexed, contiguous
	Text      string   `json:"-"`
	Rotation  int      `json:"rotation"`             // degrees clockwise, normalized to 0/90/180/270
	ImageRefs []string `json:"image_refs,omitempty"` // opaque references into the image store
}

// HasTextLayer reports whether any text was extracted for the page.
func (p Page) HasTextLayer() bool {
	return len(p.Text) > 0
}

// HasImage reports whether any image derivative exists for the page.
func (p Page) HasImage() bool {
	return len(p.ImageRefs) > 0
}

// SheetIndexEntry is the classifier's structured view of one page.
// One entry per page, immutable after creation.
type SheetIndexEntry struct {
	SheetID      string   `json:"sheet_id"`
	Title        string   `json:"title,omitempty"`
	Discipline   string   `json:"discipline"`
	SheetType    string   `json:"sheet_type"`
	Scale        string   `json:"scale,omitempty"`
	ScaleRatio   *float64 `json:"scale_ratio,omitempty"`
	Units        string   `json:"units,omitempty"`
	PageNumber   int      `json:"page_number"`
	Rotation     int      `json:"rotation"`
	HasTextLayer bool     `json:"has_text_layer"`
	HasImage     bool     `json:"has_image"`
	TextLength   int      `json:"text_length"`
	Keywords     []string `json:"detected_keywords,omitempty"`
}

// PlanSetGroup is a read-only projection of the sheet index: all sheets
// sharing one (sheet_type, discipline) pair, in page order.
type PlanSetGroup struct {
	GroupID     string   `json:"group_id"`
	Name        string   `json:"name"`
	SheetType   string   `json:"sheet_type"`
	Discipline  string   `json:"discipline"`
	PageNumbers []int    `json:"page_numbers"`
	SheetIDs    []string `json:"sheet_ids"`
	Scale       string   `json:"scale,omitempty"` // set only when every member shares it
	Description string   `json:"description,omitempty"`
}

// PageRange identifies the contiguous document pages a chunk covers.
type PageRange struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Pages []int `json:"pages"`
}

// Anchor is a reference point inside a chunk, pointing back at a sheet or
// page. An anchor is owned by exactly one chunk.
type Anchor struct {
	AnchorID    string `json:"anchor_id"`
	Type        string `json:"type"` // "sheet" or "page"
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	PageNumber  int    `json:"page_number"`
}

// OverlapInfo links a chunk to its neighbors in the packed sequence.
type OverlapInfo struct {
	PrevChunkID   string `json:"prev_chunk_id,omitempty"`
	NextChunkID   string `json:"next_chunk_id,omitempty"`
	OverlapTokens int    `json:"overlap_tokens"`
}

// Safeguards carries the dedupe fingerprint and double-counting advisories
// for one chunk.
type Safeguards struct {
	DedupeHash         string   `json:"dedupe_hash,omitempty"`
	LocationKeys       []string `json:"location_keys,omitempty"`
	QuantitySignatures []string `json:"quantity_signatures,omitempty"`
	NoMultiplyHints    []string `json:"no_multiply_hints,omitempty"`
}

// Chunk is a packed, token-budgeted span of consecutive pages. Chunks are
// created once by the packer plus annotator and never mutated afterwards;
// ChunkIndex values form a dense 0-based sequence.
type Chunk struct {
	ChunkID    string            `json:"chunk_id"`
	ChunkIndex int               `json:"chunk_index"`
	PageRange  PageRange         `json:"page_range"`
	SheetIndex []SheetIndexEntry `json:"sheet_index_subset"`
	Text       string            `json:"text"`
	TokenCount int               `json:"token_count"`
	ImageRefs  []string          `json:"image_refs,omitempty"`
	Anchors    []Anchor          `json:"anchors,omitempty"`
	Overlap    OverlapInfo       `json:"overlap_info"`
	Safeguards Safeguards        `json:"safeguards"`
}

// ChunkPreview is the lightweight chunk view embedded in the summary
// payload; full chunk bodies are fetched separately by index.
type ChunkPreview struct {
	ChunkID    string    `json:"chunk_id"`
	ChunkIndex int       `json:"chunk_index"`
	PageRange  PageRange `json:"page_range"`
	TokenCount int       `json:"token_count"`
	SheetCount int       `json:"sheet_count"`
}

// Preview returns the summary view of the chunk.
func (c Chunk) Preview() ChunkPreview {
	return ChunkPreview{
		ChunkID:    c.ChunkID,
		ChunkIndex: c.ChunkIndex,
		PageRange:  c.PageRange,
		TokenCount: c.TokenCount,
		SheetCount: len(c.SheetIndex),
	}
}

// Warning records a degraded (non-fatal) condition observed during
// processing. The job still succeeds; warnings ride along in the summary.
type Warning struct {
	Page    int    `json:"page,omitempty"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Summary is the caller-facing result of one ingestion.
type Summary struct {
	DocumentID       string            `json:"document_id"`
	TotalPages       int               `json:"total_pages"`
	TotalChunks      int               `json:"total_chunks"`
	SheetIndexCount  int               `json:"sheet_index_count"`
	ImagesExtracted  int               `json:"images_extracted"`
	AverageChunkSize int               `json:"average_chunk_size_tokens"`
	SheetIndex       []SheetIndexEntry `json:"sheet_index"`
	Groups           []PlanSetGroup    `json:"plan_set_groups"`
	Chunks           []ChunkPreview    `json:"chunks"`
	Warnings         []Warning         `json:"warnings,omitempty"`
}
