// Package tokenizer turns icon classifications into inline text tokens.
package tokenizer

import (
	"sort"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Tokenize returns one token per classification, in input order.
func Tokenize(classified []domain.IconClassification) []domain.IconToken {
	tokens := make([]domain.IconToken, 0, len(classified))
	for _, c := range classified {
		tokens = append(tokens, domain.NewIconToken(c))
	}
	return tokens
}

// ByPage groups token strings by the page their representative crop came
// from. Tokens keep their input order within a page; tokens whose
// representative is not a crop file are skipped.
func ByPage(tokens []domain.IconToken) map[string][]string {
	pages := make(map[string][]string)
	for _, t := range tokens {
		page := domain.PageIDFromIconFile(t.Representative)
		if page == "" {
			continue
		}
		pages[page] = append(pages[page], t.Token)
	}
	return pages
}

// Vocabulary returns the distinct tokens with one meaning each, sorted by token.
// The first meaning seen for a token wins.
func Vocabulary(tokens []domain.IconToken) []domain.IconToken {
	seen := make(map[string]bool, len(tokens))
	out := make([]domain.IconToken, 0, len(tokens))
	for _, t := range tokens {
		if seen[t.Token] {
			continue
		}
		seen[t.Token] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}
