package model

// Resource is one ingested document. The row is written after all of its
// chunks are stored, so its presence marks a committed ingest.
type Resource struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	ByteSize    int64  `json:"byte_size"`
	ContentHash string `json:"content_hash"`
	ChunkCount  int    `json:"chunk_count"`
	Ctime       int64  `json:"ctime"`
}

type IngestResult struct {
	ResourceID string `json:"resource_id"`
	ChunkCount int    `json:"chunk_count"`
}
