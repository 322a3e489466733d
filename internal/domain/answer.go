package domain

// NoAnswerToken is the literal the extraction model emits when a passage
// holds no answer. The empty string carries the same meaning.
const NoAnswerToken = "empty"

// AnswerRecord is one extracted answer with the metadata of its passage.
type AnswerRecord struct {
	Answer      string `json:"answer"`
	Title       string `json:"title"`
	StorageName string `json:"metadata_storage_name"`
	DocumentID  string `json:"document_id"`
	DocumentURI string `json:"document_uri"`
}

// NewAnswerRecord binds an answer to the source of the passage it came from.
func NewAnswerRecord(answer string, src SourceMetadata) AnswerRecord {
	return AnswerRecord{
		Answer:      answer,
		Title:       src.Title,
		StorageName: src.StorageName,
		DocumentID:  src.DocumentID,
		DocumentURI: src.DocumentURI,
	}
}

// IsNoAnswer reports whether the model output is one of the no-answer sentinels.
func IsNoAnswer(answer string) bool {
	return answer == "" || answer == NoAnswerToken
}

// AnswerCounts is the counts block of a response.
type AnswerCounts struct {
	Documents int `json:"documents"`
	Answers   int `json:"answers"`
}
