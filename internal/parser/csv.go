package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVParser renders each data row as one line of "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	var lines []string
	for _, row := range records[1:] {
		var text strings.Builder
		for j, cell := range row {
			if j > 0 {
				text.WriteString(", ")
			}
			if j < len(headers) {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
		}
		lines = append(lines, text.String())
	}
	return strings.Join(lines, "\n"), nil
}
