// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package textvec provides a deterministic TF-IDF text vectorizer.
//
// Fitting the same corpus twice yields the same vocabulary and the same
// vectors: vocabulary selection and indexing break every tie by term.
package textvec

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// ErrNotFitted is returned by Transform before Fit has been called.
var ErrNotFitted = errors.New("vectorizer is not fitted")

// Vector is a dense, L2-normalised TF-IDF vector.
type Vector []float64

// Vectorizer converts documents into TF-IDF vectors over a vocabulary of
// word n-grams learned by Fit. A fitted Vectorizer is safe for concurrent
// Transform calls.
type Vectorizer struct {
	// MaxFeatures caps the vocabulary size. Zero means unlimited.
	MaxFeatures int

	// NGramMax is the longest n-gram in words. Values below 1 mean 1.
	NGramMax int

	// StopWords are dropped before n-grams are built. Nil selects
	// EnglishStopWords.
	StopWords map[string]struct{}

	vocabulary map[string]int
	idf        []float64
	fitted     bool
}

// New creates a vectorizer with English stop words.
func New(maxFeatures, ngramMax int) *Vectorizer {
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		NGramMax:    ngramMax,
	}
}

// Fit learns the vocabulary and inverse document frequencies of docs and
// returns one vector per document, in input order.
func (v *Vectorizer) Fit(docs []string) []Vector {
	terms := make([][]string, len(docs))
	freq := make(map[string]int)
	for i, doc := range docs {
		terms[i] = v.terms(doc)
		for _, t := range terms[i] {
			freq[t]++
		}
	}

	vocab := make([]string, 0, len(freq))
	for t := range freq {
		vocab = append(vocab, t)
	}
	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			if freq[vocab[i]] != freq[vocab[j]] {
				return freq[vocab[i]] > freq[vocab[j]]
			}
			return vocab[i] < vocab[j]
		})
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	v.vocabulary = make(map[string]int, len(vocab))
	for i, t := range vocab {
		v.vocabulary[t] = i
	}

	// Document frequency over the retained vocabulary.
	df := make([]int, len(vocab))
	for _, doc := range terms {
		seen := make(map[int]struct{})
		for _, t := range doc {
			if idx, ok := v.vocabulary[t]; ok {
				if _, dup := seen[idx]; !dup {
					seen[idx] = struct{}{}
					df[idx]++
				}
			}
		}
	}

	// Smooth idf: ln((1+N)/(1+df)) + 1
	n := float64(len(docs))
	v.idf = make([]float64, len(vocab))
	for i, d := range df {
		v.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	v.fitted = true

	vectors := make([]Vector, len(docs))
	for i, doc := range terms {
		vectors[i] = v.weigh(doc)
	}
	return vectors
}

// Transform returns the vector of doc over the fitted vocabulary. Terms
// outside the vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) (Vector, error) {
	if !v.fitted {
		return nil, ErrNotFitted
	}
	return v.weigh(v.terms(doc)), nil
}

// VocabularySize returns the number of features learned by Fit.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}

// weigh builds the normalised count*idf vector of a term list.
func (v *Vectorizer) weigh(terms []string) Vector {
	vec := make(Vector, len(v.vocabulary))
	for _, t := range terms {
		if idx, ok := v.vocabulary[t]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for i := range vec {
		if vec[i] == 0 {
			continue
		}
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// terms tokenizes doc and expands it into n-grams.
func (v *Vectorizer) terms(doc string) []string {
	stop := v.StopWords
	if stop == nil {
		stop = EnglishStopWords
	}

	words := make([]string, 0, 16)
	for _, tok := range Tokenize(doc) {
		if _, skip := stop[tok]; !skip {
			words = append(words, tok)
		}
	}

	maxN := v.NGramMax
	if maxN < 1 {
		maxN = 1
	}

	out := make([]string, 0, len(words)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}

// Tokenize splits s into lower-cased runs of letters and digits, keeping
// tokens of at least two characters.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero norm have similarity 0.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
