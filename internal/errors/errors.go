package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrCorpusUnavailable is returned when the word list could not be fetched or was unusable
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrSnapshotNotFound is returned when no corpus snapshot has been stored yet
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// CorpusUnavailableError represents a failed corpus load with its source and cause
type CorpusUnavailableError struct {
	Source string
	Cause  error
}

func (e *CorpusUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("corpus from '%s' unavailable", e.Source)
	}
	return fmt.Sprintf("corpus from '%s' unavailable: %v", e.Source, e.Cause)
}

func (e *CorpusUnavailableError) Is(target error) bool {
	return target == ErrCorpusUnavailable
}

func (e *CorpusUnavailableError) Unwrap() error {
	return e.Cause
}

// NewCorpusUnavailableError creates a new CorpusUnavailableError
func NewCorpusUnavailableError(source string, cause error) *CorpusUnavailableError {
	return &CorpusUnavailableError{Source: source, Cause: cause}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
