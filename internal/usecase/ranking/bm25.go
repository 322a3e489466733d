// Package ranking scores passages against a query with Okapi BM25 and keeps
// the best ones.
package ranking

import (
	"math"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Model holds the BM25 free parameters.
type Model struct {
	K1 float64
	B  float64
}

// NewModel returns a Model with k1=1.5 and b=0.75.
func NewModel() Model {
	return Model{K1: DefaultK1, B: DefaultB}
}

// CorpusStats are the statistics of one fitted corpus. They are built per
// request and never shared.
type CorpusStats struct {
	model  Model
	tf     []map[string]int
	idf    map[string]float64
	docLen []int
	avgLen float64
}

// Fit computes term frequencies, document frequencies and idf for corpus.
func (m Model) Fit(corpus [][]string) (*CorpusStats, error) {
	n := len(corpus)
	if n == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	stats := &CorpusStats{
		model:  m,
		tf:     make([]map[string]int, n),
		idf:    make(map[string]float64),
		docLen: make([]int, n),
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		freqs := make(map[string]int, len(doc))
		for _, t := range doc {
			freqs[t]++
		}
		for t := range freqs {
			df[t]++
		}
		stats.tf[i] = freqs
		stats.docLen[i] = len(doc)
		total += len(doc)
	}
	stats.avgLen = float64(total) / float64(n)

	for t, d := range df {
		stats.idf[t] = math.Log(1 + (float64(n)-float64(d)+0.5)/(float64(d)+0.5))
	}
	return stats, nil
}

// Len returns the number of documents.
func (s *CorpusStats) Len() int {
	return len(s.tf)
}

// IDF returns the inverse document frequency of term, or 0 for unseen terms.
func (s *CorpusStats) IDF(term string) float64 {
	return s.idf[term]
}

// Score returns the BM25 score of document i for query.
func (s *CorpusStats) Score(query []string, i int) float64 {
	if s.avgLen == 0 {
		return 0
	}
	k1, b := s.model.K1, s.model.B
	norm := k1 * (1 - b + b*float64(s.docLen[i])/s.avgLen)

	var score float64
	for _, t := range query {
		tf, ok := s.tf[i][t]
		if !ok {
			continue
		}
		f := float64(tf)
		score += s.idf[t] * f * (k1 + 1) / (f + norm)
	}
	return score
}

// Scores returns the score of every document in corpus order.
func (s *CorpusStats) Scores(query []string) []float64 {
	out := make([]float64, len(s.tf))
	for i := range s.tf {
		out[i] = s.Score(query, i)
	}
	return out
}
