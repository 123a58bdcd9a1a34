package domain

// Metadata keys stored alongside each vector
const (
	MetadataKeySource     = "source"
	MetadataKeyChunkIndex = "chunk_index"
)

// Document is raw text plus the filename or URL it came from
type Document struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Chunk is a bounded segment of a document
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Index  int    `json:"index"`
}

// ScoredChunk is a chunk returned by similarity search
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// RetrievalResult is ordered by similarity, most similar first
type RetrievalResult []ScoredChunk

// Texts returns the chunk texts in rank order
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i, c := range r {
		texts[i] = c.Text
	}
	return texts
}

// IngestResult reports what an ingestion stored
type IngestResult struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
}

// AnswerResult is a model answer together with the chunks it was grounded on
type AnswerResult struct {
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Sources RetrievalResult `json:"sources"`
	Cost    float64         `json:"cost"`
}

// AskRequest is the request to ask a question against the stored documents
type AskRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k,omitempty"`
}

// BrowseRequest is the request to summarize or ingest a web page
type BrowseRequest struct {
	URL string `json:"url" binding:"required"`
}

// BrowseResult is the summary of a scraped web page
type BrowseResult struct {
	URL     string  `json:"url"`
	Summary string  `json:"summary"`
	Content string  `json:"content"`
	Cost    float64 `json:"cost"`
}

// Stats represents system statistics
type Stats struct {
	Collection    string `json:"collection"`
	TotalVectors  int    `json:"total_vectors"`
	TotalSessions int    `json:"total_sessions"`
	TotalChats    int    `json:"total_chats"`
}
