package parser

import "strings"

// TextParser handles plain text. Line endings are normalized; content is
// otherwise passed through.
type TextParser struct{}

func (p *TextParser) Parse(data []byte) (string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimPrefix(text, "\ufeff"), nil
}
