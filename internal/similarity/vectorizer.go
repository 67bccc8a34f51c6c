package similarity

import (
	"math"
	"sort"
	"strings"
)

// DefaultMaxVocab caps the vocabulary at the most frequent terms, matching
// the bag-of-words configuration the matrices are specified for.
const DefaultMaxVocab = 5000

// Vectorizer fits a bag-of-words vocabulary over a text corpus and
// transforms each document into a term-count vector. For a fixed corpus and
// configuration the output is bit-reproducible: the vocabulary is ordered by
// corpus frequency with alphabetical tie-breaks, never map iteration order.
type Vectorizer struct {
	maxVocab  int
	stopWords func(string) bool
}

// NewVectorizer creates a vectorizer with the given vocabulary cap. The stop
// filter runs here as well, as defense in depth behind the feature builder.
func NewVectorizer(maxVocab int, stopWords func(string) bool) *Vectorizer {
	if maxVocab <= 0 {
		maxVocab = DefaultMaxVocab
	}
	return &Vectorizer{maxVocab: maxVocab, stopWords: stopWords}
}

// FitTransform builds the vocabulary from the corpus and returns one count
// vector per document, aligned with the corpus order.
func (v *Vectorizer) FitTransform(corpus []string) [][]float64 {
	totals := make(map[string]int)
	tokenized := make([][]string, len(corpus))
	for i, doc := range corpus {
		tokens := strings.Fields(doc)
		kept := tokens[:0]
		for _, tok := range tokens {
			if v.stopWords != nil && v.stopWords(tok) {
				continue
			}
			kept = append(kept, tok)
			totals[tok]++
		}
		tokenized[i] = kept
	}

	vocab := v.buildVocab(totals)

	vectors := make([][]float64, len(corpus))
	for i, tokens := range tokenized {
		vec := make([]float64, len(vocab))
		for _, tok := range tokens {
			if idx, ok := vocab[tok]; ok {
				vec[idx]++
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// buildVocab selects the maxVocab most frequent terms. Ties are broken
// alphabetically so the mapping is deterministic.
func (v *Vectorizer) buildVocab(totals map[string]int) map[string]int {
	terms := make([]string, 0, len(totals))
	for term := range totals {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totals[terms[i]] != totals[terms[j]] {
			return totals[terms[i]] > totals[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.maxVocab {
		terms = terms[:v.maxVocab]
	}

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}

// CosineMatrix computes the dense pairwise cosine-similarity matrix of the
// vectors. The diagonal of every nonzero row is exactly 1; rows whose vector
// is all zeros have no signal and stay 0 everywhere, so an entirely empty
// corpus yields a zero matrix rather than an error.
func CosineMatrix(vectors [][]float64, fingerprint string) *Matrix {
	n := len(vectors)
	m := NewMatrix(n, fingerprint)

	norms := make([]float64, n)
	for i, vec := range vectors {
		var sum float64
		for _, x := range vec {
			sum += x * x
		}
		norms[i] = math.Sqrt(sum)
	}

	for i := 0; i < n; i++ {
		if norms[i] == 0 {
			continue
		}
		m.set(i, i, 1)
		for j := i + 1; j < n; j++ {
			if norms[j] == 0 {
				continue
			}
			var dot float64
			for k, x := range vectors[i] {
				dot += x * vectors[j][k]
			}
			sim := dot / (norms[i] * norms[j])
			m.set(i, j, sim)
			m.set(j, i, sim)
		}
	}
	return m
}

// Build fits a vectorizer over the corpus and computes its cosine matrix.
func Build(corpus []string, maxVocab int, stopWords func(string) bool, fingerprint string) *Matrix {
	vectors := NewVectorizer(maxVocab, stopWords).FitTransform(corpus)
	return CosineMatrix(vectors, fingerprint)
}
