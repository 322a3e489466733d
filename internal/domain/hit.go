package domain

// ParagraphsField is the index field holding a document's paragraphs.
// Highlights for this field are the only ones turned into passages.
const ParagraphsField = "paragraphs"

// SourceMetadata identifies the document a passage came from.
type SourceMetadata struct {
	DocumentID  string `json:"document_id"`
	Title       string `json:"title"`
	DocumentURI string `json:"document_uri"`
	StorageName string `json:"metadata_storage_name"`
}

// Hit is one scored result from the document index.
type Hit struct {
	// Score is the index relevance score. Its scale depends on the backend.
	Score float64
	// Paragraphs are the paragraph texts of the matched document.
	Paragraphs []string
	// Highlights holds raw highlighted fragments per field. Fragments may
	// contain <em> markers and may repeat.
	Highlights map[string][]string
	Source     SourceMetadata
}

// ParagraphHighlights returns the highlighted fragments of the paragraphs field.
func (h Hit) ParagraphHighlights() []string {
	if h.Highlights == nil {
		return nil
	}
	return h.Highlights[ParagraphsField]
}

// Document is the unit written into an index by the ingestion tooling.
type Document struct {
	ID          string   `json:"document_id"`
	Title       string   `json:"title"`
	URI         string   `json:"document_uri"`
	StorageName string   `json:"metadata_storage_name"`
	Paragraphs  []string `json:"paragraphs"`
}
