package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeExtractionFailed  = "EXTRACTION_FAILED"
	ErrCodeEmbeddingProvider = "EMBEDDING_PROVIDER_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidInput         = NewDomainError(ErrCodeValidation, "invalid input")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyChunkSet        = NewDomainError(ErrCodeValidation, "document produced no chunks")
	ErrUnsupportedMediaType = NewDomainError(ErrCodeValidation, "only PDF documents are supported")
)

// Pipeline errors
var (
	ErrExtractionFailed     = NewDomainError(ErrCodeExtractionFailed, "no text could be extracted from the document")
	ErrEmbeddingProvider    = NewDomainError(ErrCodeEmbeddingProvider, "embedding provider failed")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
