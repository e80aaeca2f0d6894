package domain

import "errors"

var (
	// ErrSourceUnavailable indicates a source file could not be fetched.
	// Ingestion skips the file and keeps going.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidK indicates a non-positive result count was requested.
	ErrInvalidK = errors.New("k must be a positive integer")

	// ErrDimensionMismatch indicates vectors of different sizes were mixed in one index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingFailed indicates the embedding provider could not produce a vector.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
