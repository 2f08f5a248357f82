// Package chunker splits document text into bounded fragments along
// sentence boundaries.
package chunker

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the fragment bound used by ingestion.
const DefaultMaxLength = 300

// Terminator is appended after every accumulated sentence.
const Terminator = "。"

// isSentenceEnd reports whether r ends a sentence. Covers line breaks and
// both ASCII and full-width punctuation.
func isSentenceEnd(r rune) bool {
	switch r {
	case '\n', '\r', '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// Sentences splits text on sentence terminators, trimming and dropping
// empty sentences.
func Sentences(text string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(text, isSentenceEnd) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Segments yields fragments of text in order. Sentences are accumulated
// greedily; a fragment is emitted when the next sentence would push the
// buffer past maxLength characters. A sentence is never split, so one
// longer than maxLength becomes its own fragment.
func Segments(text string, maxLength int) iter.Seq[string] {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return func(yield func(string) bool) {
		var buf strings.Builder
		bufLen := 0

		for _, s := range Sentences(text) {
			sLen := utf8.RuneCountInString(s)
			if bufLen > 0 && bufLen+sLen > maxLength {
				if !yield(buf.String()) {
					return
				}
				buf.Reset()
				bufLen = 0
			}
			buf.WriteString(s)
			buf.WriteString(Terminator)
			bufLen += sLen + 1
		}

		if strings.TrimSpace(buf.String()) != "" {
			yield(buf.String())
		}
	}
}

// Segment collects Segments into a slice. Empty or whitespace-only text
// yields no fragments.
func Segment(text string, maxLength int) []string {
	return slices.Collect(Segments(text, maxLength))
}
