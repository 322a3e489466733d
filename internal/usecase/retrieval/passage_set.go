package retrieval

// PassageSet records passage texts already emitted for one question. A fresh
// set is created per request and handed to every Normalize call of that
// request, so deduplication spans all hits.
type PassageSet struct {
	seen map[string]struct{}
}

// NewPassageSet returns an empty set.
func NewPassageSet() *PassageSet {
	return &PassageSet{seen: make(map[string]struct{})}
}

// Contains reports whether text has been added.
func (s *PassageSet) Contains(text string) bool {
	_, ok := s.seen[text]
	return ok
}

// Add records text and reports whether it was new.
func (s *PassageSet) Add(text string) bool {
	if s.Contains(text) {
		return false
	}
	s.seen[text] = struct{}{}
	return true
}

// Len returns the number of recorded texts.
func (s *PassageSet) Len() int {
	return len(s.seen)
}
