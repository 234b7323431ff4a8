// Package search provides a simple, deterministic, concurrency-safe
// in-memory search index over pet-listing summaries. It is intentionally
// small and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"sort"
	"strings"
	"unicode"
)

// Document is one searchable listing: a stable ID plus the text to match.
type Document struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index ranks documents against free-text queries.
type Index interface {
	TopK(query string, k int) []Result
}

// Option configures index construction.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

// WithStopwords removes the given words (case-insensitive) from every
// token set before scoring.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// memIndex is the immutable in-memory implementation of Index.
type memIndex struct {
	ids    []string
	tokens []map[string]struct{}
	cfg    config
}

// New builds an index over docs. Documents whose text tokenizes to nothing
// are dropped. The returned index is read-only and safe for concurrent use.
func New(docs []Document, opts ...Option) Index {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	idx := &memIndex{cfg: cfg}
	for _, d := range docs {
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.ids = append(idx.ids, d.ID)
		idx.tokens = append(idx.tokens, toks)
	}
	return idx
}

// TopK returns up to k documents ranked by Jaccard similarity to query,
// best first. Zero-score documents are omitted. Ties break on document
// insertion order, so repeated calls are deterministic.
func (m *memIndex) TopK(query string, k int) []Result {
	if k <= 0 {
		return nil
	}
	q := tokenize(query, m.cfg.stopwords)
	if len(q) == 0 {
		return nil
	}

	results := make([]Result, 0, len(m.ids))
	order := make(map[string]int, len(m.ids))
	for i, id := range m.ids {
		score := jaccard(q, m.tokens[i])
		if score > 0 {
			order[id] = i
			results = append(results, Result{ID: id, Score: score})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return order[results[a].ID] < order[results[b].ID]
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// tokenize lower-cases s and splits on any non-letter/non-digit rune,
// dropping stopwords.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if stop != nil {
			if _, skip := stop[f]; skip {
				continue
			}
		}
		out[f] = struct{}{}
	}
	return out
}

// jaccard computes |a ∩ b| / |a ∪ b| over two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
