// Package sentence provides model-backed sentence tokenizers.
package sentence

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// PunktTokenizer splits English text with the pretrained Punkt model, which
// knows about abbreviations, initials and ordinal numbers.
type PunktTokenizer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktTokenizer loads the embedded English Punkt training data.
func NewPunktTokenizer() (*PunktTokenizer, error) {
	t, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt english model: %w", err)
	}
	return &PunktTokenizer{tokenizer: t}, nil
}

func (p *PunktTokenizer) Tokenize(text string) []string {
	sents := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
