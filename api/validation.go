// Package api provides validation utilities for API request handling.
package api

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/model"
)

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool                              `json:"valid"`
	Errors []*internalErrors.ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, internalErrors.NewValidationError(field, message))
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// Err joins the collected errors. It matches internalErrors.ErrInvalidInput,
// or is nil when validation passed.
func (vr *ValidationResult) Err() error {
	errs := make([]error, len(vr.Errors))
	for i, err := range vr.Errors {
		errs[i] = err
	}
	return errors.Join(errs...)
}

// ValidateJobID validates a job ID path parameter. Job IDs are UUIDs.
func ValidateJobID(jobID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if jobID == "" {
		result.AddError("jobId", "Job ID is required")
		return result
	}

	if strings.TrimSpace(jobID) != jobID {
		result.AddError("jobId", "Job ID cannot have leading or trailing whitespace")
		return result
	}

	if _, err := uuid.Parse(jobID); err != nil {
		result.AddError("jobId", "Job ID must be a UUID")
	}

	return result
}

// ValidateJobStatus validates the optional status filter of the job listing
func ValidateJobStatus(status string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch model.JobStatus(status) {
	case "", model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelled:
	default:
		result.AddError("status", "Unknown job status '"+status+"'")
	}

	return result
}
