// Package retrieval turns raw index hits into bounded, deduplicated passages.
package retrieval

import (
	"strings"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
)

// sentenceJoiner joins the sentences of a passage window.
const sentenceJoiner = ". "

// Extractor locates the sentence containing a highlight and returns it
// together with one neighbouring sentence.
type Extractor struct {
	tokenizer domain.SentenceTokenizer
}

// NewExtractor creates an Extractor backed by the given sentence tokenizer.
func NewExtractor(tokenizer domain.SentenceTokenizer) *Extractor {
	return &Extractor{tokenizer: tokenizer}
}

// Extract returns the sentence window around the first sentence that contains
// highlight. Paragraphs are tried in order and the first match wins; later
// paragraphs are never consulted once one yields a window.
//
// With tokenizeHighlight set, only the first sentence of highlight is matched,
// because multi-sentence fragments rarely appear verbatim in a paragraph.
func (e *Extractor) Extract(highlight string, paragraphs []string, tokenizeHighlight bool) (string, bool) {
	if tokenizeHighlight {
		sents := e.tokenizer.Tokenize(highlight)
		if len(sents) == 0 {
			return "", false
		}
		highlight = sents[0]
	}
	if highlight == "" {
		return "", false
	}

	for _, paragraph := range paragraphs {
		if !strings.Contains(paragraph, highlight) {
			continue
		}
		sentences := e.tokenizer.Tokenize(paragraph)
		for i, sentence := range sentences {
			if strings.Contains(sentence, highlight) {
				return strings.Join(window(sentences, i), sentenceJoiner), true
			}
		}
		// The highlight straddles a sentence boundary here; try the next paragraph.
	}
	return "", false
}

// window picks the matched sentence and exactly one neighbour: the following
// sentence for the first, the preceding sentence otherwise.
func window(sentences []string, i int) []string {
	n := len(sentences)
	switch {
	case i == 0:
		return sentences[:min(2, n)]
	case i == n-1:
		return sentences[n-2:]
	default:
		return sentences[i-1 : i+1]
	}
}
