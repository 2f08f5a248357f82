// Package retrieve selects the fragments most lexically relevant to a question.
package retrieve

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

const (
	DefaultLimit         = 5
	DefaultFallbackCount = 3
)

// Options bounds a retrieval. Zero values use the defaults; a negative
// FallbackCount disables the fallback.
type Options struct {
	Limit         int
	FallbackCount int
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.FallbackCount == 0 {
		o.FallbackCount = DefaultFallbackCount
	}
	return o
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '，' || r == '。'
}

// Tokenize splits a question on whitespace, commas and full stops and
// returns the distinct lower-cased tokens in first-seen order.
func Tokenize(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !slices.Contains(tokens, f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Score counts how many tokens occur in the fragment's digest or raw text.
// Tokens must already be lower-cased.
func Score(tokens []string, f knowledge.Fragment) int {
	haystack := strings.ToLower(f.Digest + " " + f.RawText)
	score := 0
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			score++
		}
	}
	return score
}

type scored struct {
	frag  knowledge.Fragment
	score int
	order int
}

// Retrieve ranks fragments by score, highest first, breaking ties by
// fragment ID and then store order. Only positive scores are kept, up to
// opts.Limit. When nothing matches, the first opts.FallbackCount fragments
// in store order are returned instead.
func Retrieve(question string, fragments []knowledge.Fragment, opts Options) []knowledge.Fragment {
	opts = opts.withDefaults()
	tokens := Tokenize(question)

	var hits []scored
	for i, f := range fragments {
		if s := Score(tokens, f); s > 0 {
			hits = append(hits, scored{frag: f, score: s, order: i})
		}
	}

	if len(hits) == 0 {
		if opts.FallbackCount < 0 {
			return nil
		}
		return slices.Clone(fragments[:min(opts.FallbackCount, len(fragments))])
	}

	slices.SortFunc(hits, func(a, b scored) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.frag.ID, b.frag.ID),
			cmp.Compare(a.order, b.order),
		)
	})

	out := make([]knowledge.Fragment, 0, min(opts.Limit, len(hits)))
	for _, h := range hits[:min(opts.Limit, len(hits))] {
		out = append(out, h.frag)
	}
	return out
}
