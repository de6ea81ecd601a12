package model

type ChunkInput struct {
	Content    string `json:"content"`
	PageNumber *int   `json:"page_number,omitempty"`
}

type EmbeddedChunk struct {
	ChunkInput
	Embedding []float32 `json:"-"`
}

// StoredChunk is a persisted chunk row. Similarity is filled only by vector
// queries and is on the backend's own scale.
type StoredChunk struct {
	ID         string  `json:"id"`
	ResourceID string  `json:"resource_id"`
	Content    string  `json:"chunk"`
	PageNumber *int    `json:"page_number"`
	Similarity float64 `json:"-"`
}

type RankedChunk struct {
	StoredChunk
	RelevanceScore float64
}

type SearchMatch struct {
	ChunkID    string  `json:"chunk_id"`
	ResourceID string  `json:"resource_id"`
	Chunk      string  `json:"chunk"`
	PageNumber *int    `json:"page_number"`
	Score      float64 `json:"score"`
}

// PageText is the text of one page as produced by a page-aware extractor.
type PageText struct {
	Number int
	Text   string
}

// ExtractedText is an extractor's output. Pages is empty when the format has
// no page structure; otherwise Text is the pages joined in order.
type ExtractedText struct {
	Text  string
	Pages []PageText
}
