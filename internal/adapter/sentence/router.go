package sentence

import "github.com/microsoft/AzureSearch-MRC/internal/domain"

// LanguageRouter sends Japanese text to a Japanese tokenizer and everything
// else to the default one.
type LanguageRouter struct {
	fallback domain.SentenceTokenizer
	japanese domain.SentenceTokenizer
}

// NewLanguageRouter creates a router. japanese may be nil, in which case all
// text goes to fallback.
func NewLanguageRouter(fallback, japanese domain.SentenceTokenizer) *LanguageRouter {
	return &LanguageRouter{fallback: fallback, japanese: japanese}
}

func (r *LanguageRouter) Tokenize(text string) []string {
	if r.japanese != nil && ContainsJapanese(text) {
		return r.japanese.Tokenize(text)
	}
	return r.fallback.Tokenize(text)
}
