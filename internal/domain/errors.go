package domain

import "errors"

var (
	// ErrEmbeddingUnavailable signals an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrStoreUnavailable signals a document store query or write failure.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrLockContention signals that another writer holds a document row.
	// Clustering workers skip the row and retry it on the next run.
	ErrLockContention = errors.New("document locked by another writer")
	// ErrEmptyQuery signals a retrieval call with no query text.
	ErrEmptyQuery = errors.New("query text is empty")
)
