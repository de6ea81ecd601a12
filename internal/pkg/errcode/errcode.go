package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUnsupportedFormat
	ErrPayloadTooLarge
	ErrExtraction
	ErrEmptyDocument
	ErrInvalidQuery
	ErrEmbedding
	ErrPersistence
	ErrVectorSearch
	ErrAIUnavailable
)
