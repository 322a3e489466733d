package domain

// SentenceTokenizer splits text into an ordered list of sentences.
// Implementations are stateless after construction and safe for concurrent use.
type SentenceTokenizer interface {
	Tokenize(text string) []string
}
