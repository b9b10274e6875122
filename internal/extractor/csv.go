package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// extractCSV ingests a schedule export as a single tabular text page.
// Labeled header/value rows keep column meaning visible to the keyword
// and quantity scans downstream.
func extractCSV(data []byte, filename string) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no rows")
	}

	headers := records[0]

	var text strings.Builder
	text.WriteString(strings.TrimSuffix(filename, ".csv"))
	text.WriteString(" SCHEDULE\n")
	text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
	for _, row := range records[1:] {
		for j, cell := range row {
			if j < len(headers) {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
			if j < len(row)-1 {
				text.WriteString(", ")
			}
		}
		text.WriteString("\n")
	}

	return &Result{
		Pages: []plandoc.Page{{Number: 1, Text: text.String()}},
	}, nil
}
