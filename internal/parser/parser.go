// Package parser turns uploaded documents into plain text for segmentation.
package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

// Parser converts raw document bytes into plain text.
type Parser interface {
	Parse(data []byte) (string, error)
}

// Options tunes parser behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// binaryKinds arrive base64-encoded in contentEncoded.
var binaryKinds = map[string]bool{
	knowledge.KindPDF:  true,
	knowledge.KindDOCX: true,
}

// NormalizeKind lowercases kind and maps empty or unknown values to text.
func NormalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "md":
		return knowledge.KindMarkdown
	case "htm":
		return knowledge.KindHTML
	case knowledge.KindPDF, knowledge.KindDOCX, knowledge.KindMarkdown, knowledge.KindHTML, knowledge.KindCSV:
		return kind
	default:
		return knowledge.KindText
	}
}

// IsBinaryKind reports whether kind needs decoding from an encoded payload.
func IsBinaryKind(kind string) bool {
	return binaryKinds[NormalizeKind(kind)]
}

// ForKind returns the parser for a material kind.
func ForKind(kind string, opts Options) (Parser, error) {
	switch NormalizeKind(kind) {
	case knowledge.KindText:
		return &TextParser{}, nil
	case knowledge.KindMarkdown:
		return &MarkdownParser{}, nil
	case knowledge.KindCSV:
		return &CSVParser{}, nil
	case knowledge.KindHTML:
		return &HTMLParser{}, nil
	case knowledge.KindPDF:
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case knowledge.KindDOCX:
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
}
