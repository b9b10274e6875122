package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// lineTolerance is the vertical band within which text items count as the
// same line; extracted items often arrive in arbitrary order.
const lineTolerance = 0.5

// wordGap is the horizontal distance beyond which adjacent items on a
// line get a separating space.
const wordGap = 1.0

// extractPDF produces one page record per PDF page. Text extraction runs
// on a bounded worker pool; each worker writes into its page-number slot,
// so downstream stages see in-order pages regardless of completion order.
// Image extraction runs as a second per-page pass over the shared pdfcpu
// context and degrades to warnings on failure.
func extractPDF(ctx context.Context, data []byte, opts Options) (*Result, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdf unreadable: %w", err)
	}
	total := pctx.PageCount
	if total == 0 {
		return nil, fmt.Errorf("pdf unreadable: document has no pages")
	}

	result := &Result{Pages: make([]plandoc.Page, total)}
	pageWarnings := make([][]plandoc.Warning, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.PageWorkers)
	for n := 1; n <= total; n++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, rotation, err := pageText(data, n)
			var warns []plandoc.Warning
			if err != nil {
				text = ""
				warns = append(warns, plandoc.Warning{
					Page:    n,
					Stage:   "extract",
					Message: "text extraction failed: " + err.Error(),
				})
			} else if text == "" {
				warns = append(warns, noTextWarning(n))
			}
			result.Pages[n-1] = plandoc.Page{Number: n, Text: text, Rotation: rotation}
			pageWarnings[n-1] = warns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.ExtractImages && opts.ImageDir != "" {
		for n := 1; n <= total; n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			refs, err := extractPageImages(pctx, n, opts)
			if err != nil {
				pageWarnings[n-1] = append(pageWarnings[n-1], plandoc.Warning{
					Page:    n,
					Stage:   "images",
					Message: "image extraction failed: " + err.Error(),
				})
				continue
			}
			result.Pages[n-1].ImageRefs = refs
		}
	}

	for _, warns := range pageWarnings {
		result.Warnings = append(result.Warnings, warns...)
	}
	return result, nil
}

// pageText extracts one page's text in reading order. Each call opens its
// own reader over the shared bytes; the underlying parser keeps per-reader
// state and panics on malformed content streams, so both are contained
// here.
func pageText(data []byte, pageNr int) (text string, rotation int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content parse: %v", r)
		}
	}()

	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	if pageNr > r.NumPage() {
		return "", 0, nil
	}
	p := r.Page(pageNr)
	if p.V.IsNull() {
		return "", 0, nil
	}
	return readingOrderText(p.Content().Text), pageRotation(p), nil
}

// pageRotation resolves the page's Rotate attribute, walking up the page
// tree since the value is inheritable.
func pageRotation(p pdflib.Page) int {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key("Rotate"); !r.IsNull() {
			return ((int(r.Int64()) % 360) + 360) % 360
		}
	}
	return 0
}

// readingOrderText orders positioned text items top-to-bottom, then
// left-to-right. Items within lineTolerance of one vertical position form
// a single line ordered by X, which yields reading-order text even when
// the content stream emits items in arbitrary order.
func readingOrderText(items []pdflib.Text) string {
	if len(items) == 0 {
		return ""
	}

	sorted := append([]pdflib.Text(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // page origin is bottom-left
		}
		return sorted[i].X < sorted[j].X
	})

	var sb strings.Builder
	var line []pdflib.Text

	flush := func() {
		if len(line) == 0 {
			return
		}
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		for i, t := range line {
			if i > 0 {
				prev := line[i-1]
				if t.X-(prev.X+prev.W) > wordGap {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(t.S)
		}
		line = line[:0]
	}

	lineY := sorted[0].Y
	for _, t := range sorted {
		if lineY-t.Y > lineTolerance {
			flush()
			lineY = t.Y
		}
		line = append(line, t)
	}
	flush()

	return strings.TrimSpace(sb.String())
}

// extractPageImages writes a page's embedded images into the image
// directory and returns their file names as opaque references.
func extractPageImages(pctx *model.Context, pageNr int, opts Options) ([]string, error) {
	images, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(opts.ImageDir, 0755); err != nil {
		return nil, err
	}

	objNrs := make([]int, 0, len(images))
	for nr := range images {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	var refs []string
	for i, nr := range objNrs {
		img := images[nr]
		ext := img.FileType
		if ext == "" {
			ext = "bin"
		}
		name := fmt.Sprintf("%s_p%03d_%d.%s", opts.DocID, pageNr, i+1, ext)
		f, err := os.Create(filepath.Join(opts.ImageDir, name))
		if err != nil {
			return refs, err
		}
		if _, err := io.Copy(f, img); err != nil {
			f.Close()
			return refs, err
		}
		if err := f.Close(); err != nil {
			return refs, err
		}
		refs = append(refs, name)
	}
	return refs, nil
}
