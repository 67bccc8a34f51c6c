package feature

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// normalizeTokens applies the token pipeline used for the stemmed feature
// pools: lowercase, Porter-style stem, stop-word removal, drop of tokens of
// length <= 2, space-join. Stemming runs before the stop-word check.
func normalizeTokens(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(strings.ToLower(tok), punctuation)
		if tok == "" {
			continue
		}
		stem := english.Stem(tok, true)
		if IsStopWord(stem) {
			continue
		}
		if len(stem) <= 2 {
			continue
		}
		out = append(out, stem)
	}
	return strings.Join(out, " ")
}

// collapseNames turns multi-word entity names into single tokens by
// stripping internal spaces, so "Science Fiction" cannot match queries as
// two independent unigrams.
func collapseNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		collapsed := strings.ReplaceAll(name, " ", "")
		if collapsed == "" {
			continue
		}
		out = append(out, collapsed)
	}
	return out
}

// joinLower renders collapsed entity tokens as a lowercase blob without
// stemming, for the feature spaces built from entity names alone.
func joinLower(names []string) string {
	return strings.ToLower(strings.Join(collapseNames(names), " "))
}
