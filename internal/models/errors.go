// ABOUTME: Error taxonomy for configuration, ingestion, model services, and the vector index
// ABOUTME: Wrapped with %w so callers can match using errors.Is and errors.As
package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrMissingCredential means an API key was not supplied for a provider
	ErrMissingCredential = errors.New("missing API credential")

	// ErrInvalidConfig means a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat means a document extension has no parser
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidEncoding means a text document is not valid UTF-8
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")

	// ErrExtractionParse means the model returned a malformed memory object
	ErrExtractionParse = errors.New("malformed memory extraction response")

	// ErrIndexModelMismatch means the index was built with a different embedding model
	ErrIndexModelMismatch = errors.New("index was built with a different embedding model")
)

// ConfigurationError reports a missing or invalid setting
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IngestionError identifies the document that could not be ingested
type IngestionError struct {
	File string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.File, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// ServiceError is a failed call to a remote model API
type ServiceError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// EmbeddingError is returned when the embedding service fails
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding with %s failed: %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError is returned when answer generation fails permanently or exhausts its retries
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IndexValidationError rejects a malformed upsert batch or a dimension mismatch
type IndexValidationError struct {
	Reason string
}

func (e *IndexValidationError) Error() string {
	return "index validation: " + e.Reason
}

// StatusTransient reports whether an HTTP status code is worth retrying
func StatusTransient(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient reports whether err is a rate limit, server, or temporary network failure
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// dial failures and connection resets
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
