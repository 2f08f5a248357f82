// Package knowledge holds the records shared by ingestion, storage and retrieval.
package knowledge

import "time"

// Material is one registered source document.
type Material struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Fragment is one segmented, summarized unit of retrievable knowledge.
type Fragment struct {
	ID         int64  `json:"id"`
	MaterialID string `json:"materialId"`
	SourceName string `json:"sourceName"` // Copy of the material name.
	Position   int    `json:"position"`   // Index within the source segmentation.
	RawText    string `json:"rawText"`
	Digest     string `json:"digest"`
}

// Snapshot is the full current state of both collections.
type Snapshot struct {
	Materials     []Material `json:"materials"`
	KnowledgeBase []Fragment `json:"knowledgeBase"`
}

// Kind tags. Anything else is treated as plain text.
const (
	KindText     = "text"
	KindPDF      = "pdf"
	KindDOCX     = "docx"
	KindMarkdown = "markdown"
	KindHTML     = "html"
	KindCSV      = "csv"
)

// Prefix returns the first n characters of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
