package ranking

import "strings"

func terms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		if !IsStopword(f) {
			out = append(out, f)
		}
	}
	return out
}

// PreprocessQuery lower-cases and whitespace-splits q, then drops stopwords.
// Repeated terms are kept so they weigh in once per occurrence.
func PreprocessQuery(q string) []string {
	return terms(q)
}

// PreprocessCorpus tokenizes every text like PreprocessQuery and then removes
// terms that occur exactly once across all texts.
func PreprocessCorpus(texts []string) [][]string {
	docs := make([][]string, len(texts))
	counts := make(map[string]int)
	for i, text := range texts {
		docs[i] = terms(text)
		for _, t := range docs[i] {
			counts[t]++
		}
	}

	for i, doc := range docs {
		kept := doc[:0]
		for _, t := range doc {
			if counts[t] > 1 {
				kept = append(kept, t)
			}
		}
		docs[i] = kept
	}
	return docs
}
