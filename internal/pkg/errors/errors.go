package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrTooMany  = errors.New("too many requests")
	ErrConflict = errors.New("conflict")
	ErrInternal = errors.New("internal")

	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrPayloadTooLarge   = errors.New("document exceeds maximum supported size")
	ErrExtraction        = errors.New("failed to extract document text")
	ErrEmptyDocument     = errors.New("no content chunks were produced from document")
	ErrInvalidQuery      = errors.New("query is required")

	ErrEmbedding           = errors.New("failed to generate embeddings")
	ErrPersistence         = errors.New("failed to persist chunks")
	ErrPersistenceMismatch = errors.New("mismatch between stored chunks and embeddings")
	ErrVectorSearch        = errors.New("vector search failed")
)

var inputErrors = []error{
	ErrInvalid,
	ErrUnsupportedFormat,
	ErrPayloadTooLarge,
	ErrExtraction,
	ErrEmptyDocument,
	ErrInvalidQuery,
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err was caused by the caller's input rather
// than by a downstream provider or the store.
func IsInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
