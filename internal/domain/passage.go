package domain

// MaxPassageLength is the passage cap in characters (Unicode code points)
// imposed by the extraction model's input window.
const MaxPassageLength = 500

// Passage is a bounded excerpt of one paragraph paired with its source.
type Passage struct {
	Text   string
	Source SourceMetadata
}

// CandidateSet is the ordered passage list produced for one question.
// Text and metadata live in the same element so they can never drift apart.
type CandidateSet []Passage

// Texts returns the passage texts in order.
func (cs CandidateSet) Texts() []string {
	texts := make([]string, len(cs))
	for i, p := range cs {
		texts[i] = p.Text
	}
	return texts
}
